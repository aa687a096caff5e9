package cache

import "encoding/json"

// Codec turns cached values into the payload stored by networked backends.
type Codec[T any] interface {
	Marshal(T) ([]byte, error)
	Unmarshal([]byte) (T, error)
}

// JSONCodec encodes with encoding/json. Field names come from the json
// struct tags of T and nothing renames untagged fields: an untagged UserName
// is stored as "UserName". Values shared with other services must carry
// snake_case tags, or the cache must be given a different Codec.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Marshal(v T) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
