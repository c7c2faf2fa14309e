package certstream

import (
	"os"
)

// ReadWorkItems loads one CertStream envelope from a JSON file and expands it
// into work items. Used for replaying captured messages without a live feed.
func ReadWorkItems(path string) ([]WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMessage(data)
}
