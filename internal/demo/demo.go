// Package demo runs the person operations in a fixed order against a live
// repository and reports how far it got.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wassilaaloui/peoplestore/internal/logging"
	"github.com/wassilaaloui/peoplestore/internal/models"
	"github.com/wassilaaloui/peoplestore/internal/person"
)

// Step is one named stage of a run.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// StepResult records the outcome of a single step
type StepResult struct {
	Name     string
	Success  bool
	Skipped  bool
	Error    string
	Duration time.Duration
}

// Report summarises a run. Completed is true only when every step succeeded.
type Report struct {
	RunID     string
	Results   []StepResult
	Completed bool
	Remaining int64 // documents left in the collection, -1 if unknown
	Duration  time.Duration
}

// Runner executes the demonstration steps sequentially inside one failure
// scope: the first failing step ends the run.
type Runner struct {
	repo   *person.Repository
	logger logging.Logger
	runID  string

	created []models.Person
}

// SamplePeople is the batch inserted by the "create many" step.
func SamplePeople() []models.Person {
	return []models.Person{
		models.NewPerson("Alice", 30, "pizza", "burrito"),
		models.NewPerson("Bob", 25, "hamburger", "burrito"),
		models.NewPerson("Mary", 28, "salad"),
		models.NewPerson("Mary", 32, "burrito", "tacos"),
	}
}

// NewRunner creates a runner with a fresh run id attached to its log lines
func NewRunner(repo *person.Repository, logger logging.Logger) *Runner {
	runID := uuid.NewString()
	return &Runner{
		repo:   repo,
		runID:  runID,
		logger: logger.WithFields(logging.Fields{"component": "demo", "run_id": runID}),
	}
}

// RunID returns the id of this run
func (r *Runner) RunID() string {
	return r.runID
}

// Steps returns the demonstration in execution order.
func (r *Runner) Steps() []Step {
	return []Step{
		{Name: "create one person", Run: r.createOne},
		{Name: "create many people", Run: r.createMany},
		{Name: "find people named Mary", Run: r.findMary},
		{Name: "find one person who likes burrito", Run: r.findBurritoLover},
		{Name: "find person by id", Run: r.findByID},
		{Name: "add hamburger to favorites", Run: r.addHamburger},
		{Name: "update Alice's age to 20", Run: r.updateAlice},
		{Name: "query burrito lovers", Run: r.queryBurrito},
		{Name: "remove all people named Mary", Run: r.removeMary},
	}
}

// Run executes Steps in order, stopping at the first failure and returning
// its error. Steps after the failure are reported as skipped.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	return r.run(ctx, r.Steps())
}

func (r *Runner) run(ctx context.Context, steps []Step) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: r.runID, Results: make([]StepResult, 0, len(steps)), Remaining: -1}
	r.logger.Infow("Testing all functions", "steps", len(steps))

	var runErr error
	for i, step := range steps {
		if runErr != nil {
			report.Results = append(report.Results, StepResult{Name: step.Name, Skipped: true})
			continue
		}

		r.logger.Infof("%d. %s", i+1, step.Name)
		stepStart := time.Now()
		err := step.Run(ctx)
		result := StepResult{Name: step.Name, Success: err == nil, Duration: time.Since(stepStart)}
		if err != nil {
			result.Error = err.Error()
			runErr = fmt.Errorf("step %q: %w", step.Name, err)
			r.logger.Errorw("Error in tests", "step", step.Name, "error", err)
		}
		report.Results = append(report.Results, result)
	}

	if n, err := r.repo.Count(ctx); err == nil {
		report.Remaining = n
	}
	report.Duration = time.Since(start)

	if runErr != nil {
		return report, runErr
	}
	report.Completed = true
	r.logger.Infow("All tests completed successfully", "remaining", report.Remaining, "duration", report.Duration)
	return report, nil
}

func (r *Runner) createOne(ctx context.Context) error {
	_, err := r.repo.InsertOne(ctx, models.NewPerson("John Doe", 25, "pizza", "pasta"))
	return err
}

func (r *Runner) createMany(ctx context.Context) error {
	created, err := r.repo.InsertMany(ctx, SamplePeople())
	if err != nil {
		return err
	}
	r.created = created
	return nil
}

func (r *Runner) findMary(ctx context.Context) error {
	_, err := r.repo.FindByName(ctx, "Mary")
	return err
}

func (r *Runner) findBurritoLover(ctx context.Context) error {
	p, err := r.repo.FindOneByFavoriteFood(ctx, "burrito")
	if err != nil {
		return err
	}
	if p != nil && !p.LikesFood("burrito") {
		return fmt.Errorf("person %s does not like burrito", p.ID.Hex())
	}
	return nil
}

// firstCreatedID returns the id of the first person from the batch insert,
// or "" if that step produced nothing stored.
func (r *Runner) firstCreatedID() string {
	if len(r.created) == 0 || !r.created[0].Persisted() {
		return ""
	}
	return r.created[0].ID.Hex()
}

func (r *Runner) findByID(ctx context.Context) error {
	id := r.firstCreatedID()
	if id == "" {
		r.logger.Warn("No created people, skipping find by id")
		return nil
	}
	_, err := r.repo.FindByID(ctx, id)
	return err
}

func (r *Runner) addHamburger(ctx context.Context) error {
	id := r.firstCreatedID()
	if id == "" {
		r.logger.Warn("No created people, skipping favorite food update")
		return nil
	}
	_, err := r.repo.AppendFavoriteFoodAndSave(ctx, id, "hamburger")
	return err
}

func (r *Runner) updateAlice(ctx context.Context) error {
	_, err := r.repo.UpdateAgeByName(ctx, "Alice", 20)
	return err
}

func (r *Runner) queryBurrito(ctx context.Context) error {
	_, err := r.repo.QueryFavoriteFood(ctx, "burrito", 2, models.FieldAge)
	return err
}

func (r *Runner) removeMary(ctx context.Context) error {
	_, err := r.repo.RemoveAllByName(ctx, "Mary")
	return err
}
