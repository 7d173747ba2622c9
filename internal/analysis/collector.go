package analysis

import (
	"sort"
	"sync"

	"github.com/hierarchy-analysis/pkg/utils"
)

// MissingClassCollector records each missing class once and logs it at
// Debug level. It is safe for concurrent use.
type MissingClassCollector struct {
	logger utils.Logger

	mu     sync.Mutex
	causes map[string]error
}

// NewMissingClassCollector creates a collector that logs to logger.
func NewMissingClassCollector(logger utils.Logger) *MissingClassCollector {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &MissingClassCollector{logger: logger, causes: make(map[string]error)}
}

// ReportMissingClass implements hierarchy.MissingClassReporter.
func (c *MissingClassCollector) ReportMissingClass(className string, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.causes[className]; seen {
		return
	}
	c.causes[className] = cause
	c.logger.Debug("missing class %s: %v", className, cause)
}

// Count returns the number of distinct missing classes.
func (c *MissingClassCollector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.causes)
}

// Names returns the missing class names, sorted.
func (c *MissingClassCollector) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.causes))
	for name := range c.causes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cause returns the first error reported for className.
func (c *MissingClassCollector) Cause(className string) (error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	err, ok := c.causes[className]
	return err, ok
}
