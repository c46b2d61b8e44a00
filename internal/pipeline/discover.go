package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// DiscoverTopics lists the topics that have an annotation export for date in
// dir in at least one of langs.
func DiscoverTopics(dir, date string, langs []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading annotations dir: %w", err)
	}

	prefix := "annotation_" + date + "_"
	seen := map[string]bool{}
	var topics []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		rest := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		for _, lang := range langs {
			topic, ok := strings.CutSuffix(rest, "_"+lang)
			if !ok || topic == "" {
				continue
			}
			if !seen[topic] {
				seen[topic] = true
				topics = append(topics, topic)
			}
			break
		}
	}
	sort.Strings(topics)
	return topics, nil
}
