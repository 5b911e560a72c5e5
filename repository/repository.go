// Package repository reads and writes the storefront's records through gorm
// and keeps the Redis side structures (package cache, change channel) in step.
package repository

import (
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// notFound maps gorm's sentinel onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func encodeList(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	data, _ := json.Marshal(list)
	return datatypes.JSON(data)
}

// decodeList tolerates NULL and malformed columns.
func decodeList(data datatypes.JSON) []string {
	var list []string
	if len(data) == 0 {
		return list
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil
	}
	return list
}

func encodeObject(m map[string]any) datatypes.JSON {
	if len(m) == 0 {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func decodeObject(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
