package loopx

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type recordingProcessor struct {
	*eventProcessor[string, int, int64]
	models  []string
	effects []int64
}

func testInit(model string) First[string, int64] {
	return NewFirst(model+"!", int64(15), int64(25), int64(35))
}

func testUpdate(model string, event int) Next[string, int64] {
	if event == 0 {
		return NoChange[string, int64]()
	}
	effects := make([]int64, 0, event)
	for i := 0; i < event; i++ {
		effects = append(effects, 10*int64(i+1))
	}
	return NewNext(fmt.Sprintf("%s->%d", model, event), effects...)
}

func newRecordingProcessor() *recordingProcessor {
	rp := &recordingProcessor{}
	rp.eventProcessor = newEventProcessor[string, int, int64](
		"init",
		testInit,
		testUpdate,
		NoopLogger[string, int, int64]{},
		func(m string) { rp.models = append(rp.models, m) },
		func(f int64) { rp.effects = append(rp.effects, f) },
	)
	return rp
}

func containsAll(got []int64, want ...int64) bool {
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestEventProcessor_EmitsModelIfChanged(t *testing.T) {
	p := newRecordingProcessor()
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	p.Update(1)

	want := []string{"init!", "init!->1"}
	if !reflect.DeepEqual(p.models, want) {
		t.Errorf("models = %v, want %v", p.models, want)
	}
}

func TestEventProcessor_OnlyEmitsModelWhenPresent(t *testing.T) {
	p := newRecordingProcessor()
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		event int
		want  string
	}{
		{0, "init!"},
		{1, "init!->1"},
		{0, "init!->1"},
		{2, "init!->1->2"},
	}
	for _, s := range steps {
		p.Update(s.event)
		if got := p.CurrentModel(); got != s.want {
			t.Errorf("after %d: CurrentModel() = %q, want %q", s.event, got, s.want)
		}
	}

	want := []string{"init!", "init!->1", "init!->1->2"}
	if !reflect.DeepEqual(p.models, want) {
		t.Errorf("models = %v, want %v", p.models, want)
	}
}

func TestEventProcessor_EmitsEffectsDuringInit(t *testing.T) {
	p := newRecordingProcessor()
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	if !containsAll(p.effects, 15, 25, 35) {
		t.Errorf("effects = %v, want 15, 25, 35", p.effects)
	}
}

func TestEventProcessor_EmitsEffectsOnUpdate(t *testing.T) {
	p := newRecordingProcessor()
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	p.effects = nil
	p.Update(3)
	if !containsAll(p.effects, 10, 20, 30) {
		t.Errorf("effects = %v, want 10, 20, 30", p.effects)
	}
}

func TestEventProcessor_QueuesUpdatesReceivedBeforeInit(t *testing.T) {
	p := newRecordingProcessor()
	p.Update(1)
	p.Update(2)
	p.Update(3)

	if got := p.CurrentModel(); got != "init" {
		t.Errorf("CurrentModel() before init = %q, want \"init\"", got)
	}
	if len(p.models) != 0 {
		t.Errorf("models before init = %v, want none", p.models)
	}

	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	want := []string{"init!", "init!->1", "init!->1->2", "init!->1->2->3"}
	if !reflect.DeepEqual(p.models, want) {
		t.Errorf("models = %v, want %v", p.models, want)
	}
}

func TestEventProcessor_DisallowsDuplicateInitialisation(t *testing.T) {
	p := newRecordingProcessor()
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	if err := p.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init() = %v, want ErrAlreadyInitialized", err)
	}
	if len(p.models) != 1 {
		t.Errorf("models = %v, want only the first init", p.models)
	}
}

func TestEventProcessor_UpdatePanicLeavesModel(t *testing.T) {
	var reported error
	logger := &hookLogger{onUpdateErr: func(err error) { reported = err }}

	var models []string
	p := newEventProcessor[string, int, int64](
		"start",
		func(m string) First[string, int64] { return NewFirst[string, int64](m) },
		func(m string, e int) Next[string, int64] {
			if e < 0 {
				panic("negative event")
			}
			return NewNext[string, int64](fmt.Sprintf("%s+%d", m, e))
		},
		logger,
		func(m string) { models = append(models, m) },
		func(int64) {},
	)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	p.Update(-1)
	p.Update(2)

	if reported == nil {
		t.Error("panic in update was not reported to the logger")
	}
	if got := p.CurrentModel(); got != "start+2" {
		t.Errorf("CurrentModel() = %q, want \"start+2\"", got)
	}
	want := []string{"start", "start+2"}
	if !reflect.DeepEqual(models, want) {
		t.Errorf("models = %v, want %v", models, want)
	}
}

func TestEventProcessor_InitPanicIsReportedAndNotRetried(t *testing.T) {
	var reported error
	logger := &hookLogger{onInitErr: func(err error) { reported = err }}

	published := 0
	p := newEventProcessor[string, int, int64](
		"start",
		func(string) First[string, int64] { panic(errors.New("bad init")) },
		testUpdate,
		logger,
		func(string) { published++ },
		func(int64) {},
	)

	if err := p.Init(); err == nil {
		t.Fatal("Init() = nil, want error from panicking init")
	}
	if reported == nil {
		t.Error("panic in init was not reported to the logger")
	}
	if published != 0 {
		t.Errorf("published %d models after failed init, want 0", published)
	}
	if got := p.CurrentModel(); got != "start" {
		t.Errorf("CurrentModel() = %q, want \"start\"", got)
	}
}

// hookLogger records the order of logger calls.
type hookLogger struct {
	NoopLogger[string, int, int64]
	calls       []string
	onInitErr   func(error)
	onUpdateErr func(error)
}

func (l *hookLogger) BeforeInit(string) { l.calls = append(l.calls, "beforeInit") }
func (l *hookLogger) AfterInit(string, First[string, int64]) {
	l.calls = append(l.calls, "afterInit")
}
func (l *hookLogger) ExceptionDuringInit(_ string, err error) {
	l.calls = append(l.calls, "exceptionDuringInit")
	if l.onInitErr != nil {
		l.onInitErr(err)
	}
}
func (l *hookLogger) BeforeUpdate(string, int) { l.calls = append(l.calls, "beforeUpdate") }
func (l *hookLogger) AfterUpdate(string, int, Next[string, int64]) {
	l.calls = append(l.calls, "afterUpdate")
}
func (l *hookLogger) ExceptionDuringUpdate(_ string, _ int, err error) {
	l.calls = append(l.calls, "exceptionDuringUpdate")
	if l.onUpdateErr != nil {
		l.onUpdateErr(err)
	}
}

func TestLoggers_HookOrderAndFanOut(t *testing.T) {
	a, b := &hookLogger{}, &hookLogger{}
	p := newEventProcessor[string, int, int64](
		"init", testInit, testUpdate,
		Loggers[string, int, int64](a, b),
		func(string) {}, func(int64) {},
	)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	p.Update(1)

	want := []string{"beforeInit", "afterInit", "beforeUpdate", "afterUpdate"}
	for name, l := range map[string]*hookLogger{"a": a, "b": b} {
		if !reflect.DeepEqual(l.calls, want) {
			t.Errorf("logger %s calls = %v, want %v", name, l.calls, want)
		}
	}
}

// afterPanicLogger panics in its After hooks.
type afterPanicLogger struct {
	hookLogger
}

func (l *afterPanicLogger) AfterInit(string, First[string, int64]) { panic("after init") }
func (l *afterPanicLogger) AfterUpdate(string, int, Next[string, int64]) {
	panic("after update")
}

func TestEventProcessor_LoggerPanicKeepsResult(t *testing.T) {
	var reported []error
	logger := &afterPanicLogger{}
	logger.onInitErr = func(err error) { reported = append(reported, err) }
	logger.onUpdateErr = func(err error) { reported = append(reported, err) }

	var models []string
	var effects []int64
	p := newEventProcessor[string, int, int64](
		"init", testInit, testUpdate, logger,
		func(m string) { models = append(models, m) },
		func(f int64) { effects = append(effects, f) },
	)
	if err := p.Init(); err != nil {
		t.Fatalf("Init() = %v, want nil when only the logger panics", err)
	}
	p.Update(1)

	if len(reported) != 0 {
		t.Errorf("logger panics reported as init/update exceptions: %v", reported)
	}
	want := []string{"init!", "init!->1"}
	if !reflect.DeepEqual(models, want) {
		t.Errorf("models = %v, want %v", models, want)
	}
	if !containsAll(effects, 15, 25, 35, 10) {
		t.Errorf("effects = %v, want init and update effects", effects)
	}
}

func TestEventProcessor_PublishesEqualModels(t *testing.T) {
	var models []int
	p := newEventProcessor[int, string, string](
		5,
		func(m int) First[int, string] { return NewFirst[int, string](m) },
		func(m int, _ string) Next[int, string] { return NewNext[int, string](m) },
		NoopLogger[int, string, string]{},
		func(m int) { models = append(models, m) },
		func(string) {},
	)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	p.Update("same")
	p.Update("same")

	want := []int{5, 5, 5}
	if !reflect.DeepEqual(models, want) {
		t.Errorf("models = %v, want %v: every Next with a model is published", models, want)
	}
}
