package docstore

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toDocument converts any bson-marshalable value into a fresh bson.M.
func toDocument(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func toFilter(filter any) (bson.M, error) {
	if filter == nil {
		return bson.M{}, nil
	}
	doc, err := toDocument(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return doc, nil
}

func decode(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

// decodeAll decodes docs into results, which must point to a slice.
func decodeAll(docs []bson.M, results any) error {
	rv := reflect.ValueOf(results)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("results argument must be a pointer to a slice, got %T", results)
	}
	sliceVal := rv.Elem()
	elemType := sliceVal.Type().Elem()
	out := reflect.MakeSlice(sliceVal.Type(), 0, len(docs))
	for _, d := range docs {
		elem := reflect.New(elemType)
		if err := decode(d, elem.Interface()); err != nil {
			return err
		}
		out = reflect.Append(out, elem.Elem())
	}
	sliceVal.Set(out)
	return nil
}

// matches reports whether doc satisfies filter. Supported: top-level
// equality, array membership, $eq, $ne and $in.
func matches(doc, filter bson.M) (bool, error) {
	for key, want := range filter {
		got, present := doc[key]
		if cond, ok := want.(bson.M); ok && isOperatorDoc(cond) {
			ok, err := matchOperators(got, present, cond)
			if err != nil || !ok {
				return false, err
			}
			continue
		}
		if !matchValue(got, present, want) {
			return false, nil
		}
	}
	return true, nil
}

func isOperatorDoc(cond bson.M) bool {
	for k := range cond {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func matchOperators(got any, present bool, cond bson.M) (bool, error) {
	for op, arg := range cond {
		switch op {
		case "$eq":
			if !matchValue(got, present, arg) {
				return false, nil
			}
		case "$ne":
			if matchValue(got, present, arg) {
				return false, nil
			}
		case "$in":
			list, ok := arg.(bson.A)
			if !ok {
				return false, fmt.Errorf("$in needs an array")
			}
			found := false
			for _, candidate := range list {
				if matchValue(got, present, candidate) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported query operator %s", op)
		}
	}
	return true, nil
}

func matchValue(got any, present bool, want any) bool {
	if !present {
		return want == nil
	}
	if arr, ok := got.(bson.A); ok {
		if wantArr, ok := want.(bson.A); ok {
			return valuesEqual(arr, wantArr)
		}
		for _, el := range arr {
			if valuesEqual(el, want) {
				return true
			}
		}
		return false
	}
	return valuesEqual(got, want)
}

// valuesEqual compares numbers by value regardless of their bson width.
func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// typeRank orders values of different kinds: missing, numbers, strings,
// object ids, booleans, then everything else.
func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case int, int32, int64, float64:
		return 1
	case string:
		return 2
	case primitive.ObjectID:
		return 3
	case bool:
		return 4
	default:
		return 5
	}
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case primitive.ObjectID:
		bv := b.(primitive.ObjectID)
		return bytes.Compare(av[:], bv[:])
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	}
	return 0
}

// lessBy compares two documents on the sort keys in order.
func lessBy(keys bson.D, a, b bson.M) bool {
	for _, key := range keys {
		c := compareValues(a[key.Key], b[key.Key])
		if c == 0 {
			continue
		}
		if dir, _ := toFloat(key.Value); dir < 0 {
			return c > 0
		}
		return c < 0
	}
	return false
}

// applyUpdate applies $set and $push operators to doc in place.
func applyUpdate(doc, update bson.M) error {
	if len(update) == 0 {
		return fmt.Errorf("update document must not be empty")
	}
	for op, fields := range update {
		spec, ok := fields.(bson.M)
		if !ok {
			return fmt.Errorf("update document must contain key beginning with '$', got %q", op)
		}
		switch op {
		case "$set":
			for k, v := range spec {
				if k == "_id" && !valuesEqual(doc["_id"], v) {
					return fmt.Errorf("performing an update on the path '_id' would modify the immutable field '_id'")
				}
				doc[k] = v
			}
		case "$push":
			for k, v := range spec {
				current, present := doc[k]
				if !present || current == nil {
					doc[k] = bson.A{v}
					continue
				}
				arr, ok := current.(bson.A)
				if !ok {
					return fmt.Errorf("the field %q must be an array", k)
				}
				doc[k] = append(arr, v)
			}
		default:
			return fmt.Errorf("unsupported update operator %s", op)
		}
	}
	return nil
}

func project(doc bson.M, exclude []string) bson.M {
	if len(exclude) == 0 {
		return doc
	}
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for _, f := range exclude {
		delete(out, f)
	}
	return out
}
