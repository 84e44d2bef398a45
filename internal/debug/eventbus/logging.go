package eventbus

type Logger interface {
	Debug(component string, message string, fields map[string]interface{})
	Info(component string, message string, fields map[string]interface{})
}

type logHandler struct {
	logger Logger
	debug  bool
}

func (h logHandler) GetID() string { return "log" }

func (h logHandler) Handle(event Event) {
	fields := make(map[string]interface{}, len(event.Data)+1)
	for k, v := range event.Data {
		fields[k] = v
	}
	fields["event"] = event.Type

	if h.debug {
		h.logger.Debug("EventBus", event.Type, fields)
		return
	}
	h.logger.Info("EventBus", event.Type, fields)
}

// LogEvents forwards run and iteration events to logger. Timing events are
// logged at debug level.
func LogEvents(bus *Bus, logger Logger) {
	info := logHandler{logger: logger}
	debug := logHandler{logger: logger, debug: true}

	bus.Subscribe(EventIteration, info)
	bus.Subscribe(EventRunCompleted, info)
	bus.Subscribe(EventRunFailed, info)
	bus.Subscribe(EventTimingDone, debug)
}
