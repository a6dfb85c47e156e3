package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON fixes common JSON defects in model output: single quotes,
// unquoted keys, trailing commas, unclosed brackets, markdown fences.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %v", err)
	}
	return repaired, nil
}

// ParseHJSONToStruct parses Hjson (comments, unquoted keys, optional commas)
// directly into a Go struct.
func ParseHJSONToStruct(data string, schema interface{}) error {
	if err := hjson.Unmarshal([]byte(data), schema); err != nil {
		return fmt.Errorf("hjson unmarshal: %v", err)
	}
	return nil
}

// SmartParse tries progressively more lenient strategies to decode input
// into schema: strict JSON, repaired JSON, then Hjson. Returns the string
// that decoded successfully.
func SmartParse(input string, schema interface{}) (string, error) {
	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return input, nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	if err := ParseHJSONToStruct(input, schema); err == nil {
		return input, nil
	}

	return "", fmt.Errorf("all parsing strategies failed for input")
}
