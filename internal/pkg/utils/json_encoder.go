package utils

import (
	"encoding/json"
	"io"
)

func JsonEncode(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(payload)
	}
}

func JsonDecode[T any](body io.Reader) (T, error) {
	var value T
	err := json.NewDecoder(body).Decode(&value)
	return value, err
}

func JsonDecodeByteStream[T any](data []byte) (*T, error) {
	var value T
	err := json.Unmarshal(data, &value)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
