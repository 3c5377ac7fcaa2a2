// internal/util/util.go
package util

import (
	"encoding/json"
	"os"
)

// LoadJSONFile decodes the JSON file at path into out. A missing file is not
// an error: out keeps whatever defaults it already holds.
func LoadJSONFile(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(out)
}
