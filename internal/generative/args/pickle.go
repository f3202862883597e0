package args

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
)

// namespaceClass is the class training runs pickle their args as.
const namespaceClass = "argparse.Namespace"

// pyClass stands in for any class referenced by the pickle stream.
type pyClass struct {
	name string
}

func (c *pyClass) PyNew(_ ...interface{}) (interface{}, error) {
	return &pyObject{class: c.name, dict: map[string]any{}}, nil
}

func (c *pyClass) Call(args ...interface{}) (interface{}, error) {
	obj := &pyObject{class: c.name, dict: map[string]any{}}
	if len(args) > 0 {
		obj.args = args
	}
	return obj, nil
}

// pyObject collects the instance __dict__ restored by BUILD.
type pyObject struct {
	class string
	dict  map[string]any
	args  []interface{}
}

func (o *pyObject) PyDictSet(key, value interface{}) error {
	k, ok := key.(string)
	if !ok {
		return fmt.Errorf("%s attribute name is %T, not str", o.class, key)
	}
	o.dict[k] = value
	return nil
}

// decodePickle unpickles an argparse Namespace (or a plain dict) into a
// flat map.  Nested containers become []any and map[string]any.
func decodePickle(data []byte) (map[string]any, error) {
	u := pickle.NewUnpickler(bytes.NewReader(data))
	u.FindClass = func(module, name string) (interface{}, error) {
		return &pyClass{name: module + "." + name}, nil
	}
	v, err := u.Load()
	if err != nil {
		return nil, err
	}

	switch root := v.(type) {
	case *pyObject:
		if root.class != namespaceClass {
			return nil, fmt.Errorf("pickled args are a %s, want %s", root.class, namespaceClass)
		}
		out := make(map[string]any, len(root.dict))
		for k, val := range root.dict {
			out[k] = fromPython(val)
		}
		return out, nil
	case *types.Dict:
		m, ok := fromPython(root).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("pickled args dict is not a mapping")
		}
		return m, nil
	default:
		return nil, fmt.Errorf("pickled args are a %T, want %s", v, namespaceClass)
	}
}

func fromPython(v interface{}) any {
	switch x := v.(type) {
	case *types.List:
		out := make([]any, 0, len(*x))
		for _, e := range *x {
			out = append(out, fromPython(e))
		}
		return out
	case *types.Tuple:
		out := make([]any, 0, len(*x))
		for _, e := range *x {
			out = append(out, fromPython(e))
		}
		return out
	case *types.Dict:
		out := make(map[string]any, len(*x))
		for _, e := range *x {
			k, ok := e.Key.(string)
			if !ok {
				k = fmt.Sprint(e.Key)
			}
			out[k] = fromPython(e.Value)
		}
		return out
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case *pyObject:
		// Objects such as torch.device reduce to their constructor args.
		if len(x.dict) > 0 {
			out := make(map[string]any, len(x.dict))
			for k, val := range x.dict {
				out[k] = fromPython(val)
			}
			return out
		}
		if len(x.args) == 1 {
			return fromPython(x.args[0])
		}
		return x.class
	default:
		return v
	}
}

//Personal.AI order the ending
