package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yml
var demoYAML []byte

// vocabulary is the demo-data wordlist loaded from the fixture file.
type vocabulary struct {
	Breeds []string `yaml:"breeds"`
	Coats  []string `yaml:"coats"`
	Cities []string `yaml:"cities"`
}

var demoVocabulary = mustLoadVocabulary()

func mustLoadVocabulary() vocabulary {
	var v vocabulary
	if err := yaml.Unmarshal(demoYAML, &v); err != nil {
		panic(fmt.Sprintf("seed: bad fixture file: %v", err))
	}
	if len(v.Breeds) == 0 || len(v.Coats) == 0 || len(v.Cities) == 0 {
		panic("seed: fixture file is missing breeds, coats or cities")
	}
	return v
}
