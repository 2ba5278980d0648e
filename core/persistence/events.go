package persistence

import (
	"time"

	"github.com/asaidimu/go-events"
)

// operation names the start, success and failed events of one repository call.
type operation struct {
	name    string
	start   PersistenceEventType
	success PersistenceEventType
	failed  PersistenceEventType
}

var (
	opCreateIndex = operation{"createIndex", IndexCreateStart, IndexCreateSuccess, IndexCreateFailed}
	opDropIndex   = operation{"dropIndex", IndexDropStart, IndexDropSuccess, IndexDropFailed}
	opSave        = operation{"save", EntitySaveStart, EntitySaveSuccess, EntitySaveFailed}
	opFetch       = operation{"fetch", EntityFetchStart, EntityFetchSuccess, EntityFetchFailed}
	opRemove      = operation{"remove", EntityRemoveStart, EntityRemoveSuccess, EntityRemoveFailed}
	opSearch      = operation{"search", EntitySearchStart, EntitySearchSuccess, EntitySearchFailed}
)

func createEvent(
	eventType PersistenceEventType,
	op string,
	entity string,
	input any,
	output any,
	query any,
	err *string,
	startTime time.Time,
) PersistenceEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	return PersistenceEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Operation: op,
		Entity:    entity,
		Input:     input,
		Output:    output,
		Error:     err,
		Query:     query,
		Duration:  duration,
	}
}

// emitter publishes the events of one repository.
type emitter struct {
	bus    *events.TypedEventBus[PersistenceEvent]
	entity string
}

func (e *emitter) emit(event PersistenceEvent) {
	if e.bus != nil {
		e.bus.Emit(string(event.Type), event)
	}
}

// withEventEmission wraps fn with start, success, and failure events.
func withEventEmission[T any](e *emitter, op operation, input any, queryParam any, fn func() (T, error)) (T, error) {
	startTime := time.Now()
	e.emit(createEvent(op.start, op.name, e.entity, input, nil, queryParam, nil, startTime))

	result, err := fn()
	if err != nil {
		errStr := err.Error()
		e.emit(createEvent(op.failed, op.name, e.entity, input, nil, queryParam, &errStr, startTime))
		var zero T
		return zero, err
	}

	e.emit(createEvent(op.success, op.name, e.entity, input, result, queryParam, nil, startTime))
	return result, nil
}
