package algorithms

import (
	"fmt"
	"sort"
	"sync"

	"disf-superpixels/internal/algorithms/libdisf"
	"disf-superpixels/internal/algorithms/spanning"
	"disf-superpixels/internal/native"
)

const DefaultEngine = "go"

type Manager struct {
	segmenters    map[string]Segmenter
	currentEngine string
	parameters    map[string]map[string]interface{}
	mu            sync.RWMutex
}

func NewManager() *Manager {
	manager := &Manager{
		segmenters:    make(map[string]Segmenter),
		currentEngine: DefaultEngine,
		parameters:    make(map[string]map[string]interface{}),
	}

	manager.registerSegmenters()
	manager.initializeDefaultParameters()

	return manager
}

func (m *Manager) registerSegmenters() {
	m.Register(spanning.NewProcessor())

	if native.Available() {
		m.Register(libdisf.NewProcessor())
	}
}

func (m *Manager) initializeDefaultParameters() {
	for name, segmenter := range m.segmenters {
		m.parameters[name] = segmenter.GetDefaultParameters()
	}
}

// Register adds or replaces an engine under its own name.
func (m *Manager) Register(segmenter Segmenter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.segmenters[segmenter.GetName()] = segmenter
	m.parameters[segmenter.GetName()] = segmenter.GetDefaultParameters()
}

func (m *Manager) SetCurrentEngine(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.segmenters[name]; !exists {
		return fmt.Errorf("unknown engine: %s", name)
	}

	m.currentEngine = name
	return nil
}

func (m *Manager) GetCurrentEngine() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentEngine
}

func (m *Manager) GetParameters(name string) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if params, exists := m.parameters[name]; exists {
		result := make(map[string]interface{})
		for k, v := range params {
			result[k] = v
		}
		return result
	}

	return make(map[string]interface{})
}

// SetParameter validates the change against the engine before storing it.
func (m *Manager) SetParameter(engine, name string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	params, exists := m.parameters[engine]
	if !exists {
		return fmt.Errorf("unknown engine: %s", engine)
	}

	candidate := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		candidate[k] = v
	}
	candidate[name] = value

	if err := m.segmenters[engine].ValidateParameters(candidate); err != nil {
		return err
	}
	m.parameters[engine] = candidate
	return nil
}

func (m *Manager) GetSegmenter(name string) (Segmenter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if segmenter, exists := m.segmenters[name]; exists {
		return segmenter, nil
	}

	return nil, fmt.Errorf("unknown engine: %s", name)
}

func (m *Manager) GetCurrentSegmenter() (Segmenter, error) {
	return m.GetSegmenter(m.GetCurrentEngine())
}

// GetAvailableEngines lists the registered engine names in sorted order.
func (m *Manager) GetAvailableEngines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	engines := make([]string, 0, len(m.segmenters))
	for name := range m.segmenters {
		engines = append(engines, name)
	}
	sort.Strings(engines)

	return engines
}
