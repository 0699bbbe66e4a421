package utils

import (
	"os"

	"github.com/goccy/go-yaml"
)

// ReadYaml decodes a YAML file into obj, rejecting unknown keys.
func ReadYaml(obj any, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return yaml.NewDecoder(file, yaml.Strict()).Decode(obj)
}
