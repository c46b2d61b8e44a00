package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TitleIndex maps a target language and a topic to the title of the
// target-language article:
//
//	fr:
//	  Peking duck: Canard laqué de Pékin
type TitleIndex map[string]map[string]string

// LoadTitles reads a title index file. A missing file yields an empty index.
func LoadTitles(path string) (TitleIndex, error) {
	if path == "" {
		return TitleIndex{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return TitleIndex{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading titles: %w", err)
	}
	var idx TitleIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing titles %s: %w", path, err)
	}
	if idx == nil {
		idx = TitleIndex{}
	}
	return idx, nil
}

// Title returns the target-language title of topic.
func (t TitleIndex) Title(topic, lang string) (string, bool) {
	title, ok := t[lang][topic]
	return title, ok && title != ""
}
