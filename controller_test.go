package loopx_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/comalice/loopx"
	"github.com/comalice/loopx/runners"
	"github.com/comalice/loopx/testutil"
)

// recordingView renders into a RecordingConsumer and lets tests emit events.
type recordingView struct {
	models   *testutil.RecordingConsumer[int]
	failWith error

	mu         sync.Mutex
	output     loopx.Consumer[counterEvent]
	disposed   atomic.Bool
	lateRender atomic.Bool
}

func newRecordingView() *recordingView {
	return &recordingView{models: testutil.NewRecordingConsumer[int]()}
}

func (v *recordingView) Connect(output loopx.Consumer[counterEvent]) (loopx.Connection[int], error) {
	if v.failWith != nil {
		return nil, v.failWith
	}
	v.mu.Lock()
	v.output = output
	v.mu.Unlock()
	return v, nil
}

func (v *recordingView) Accept(model int) {
	if v.disposed.Load() {
		v.lateRender.Store(true)
		return
	}
	v.models.Accept(model)
}

func (v *recordingView) Dispose() {
	v.disposed.Store(true)
}

func (v *recordingView) emit(e counterEvent) {
	v.mu.Lock()
	out := v.output
	v.mu.Unlock()
	out(e)
}

func newCounterController() *loopx.Controller[int, counterEvent, counterEffect] {
	factory := loopx.NewBuilder[int, counterEvent, counterEffect](counterUpdate, nil).
		WithEventRunner(runners.ImmediateProducer()).
		WithEffectRunner(runners.ImmediateProducer())
	return loopx.NewController[int, counterEvent, counterEffect](factory, 0,
		loopx.WithViewRunner(runners.NewImmediate()))
}

func requireIllegal(t *testing.T, op string, err error) {
	t.Helper()
	if !errors.Is(err, loopx.ErrIllegalState) {
		t.Errorf("%s: got %v, want ErrIllegalState", op, err)
	}
}

func mustOK(t *testing.T, op string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", op, err)
	}
}

func TestController_IllegalTransitions(t *testing.T) {
	c := newCounterController()
	v := newRecordingView()

	requireIllegal(t, "Start before Connect", c.Start())
	requireIllegal(t, "Stop before Connect", c.Stop())
	requireIllegal(t, "Disconnect before Connect", c.Disconnect())

	mustOK(t, "Connect", c.Connect(v))
	requireIllegal(t, "second Connect", c.Connect(v))
	requireIllegal(t, "Stop while created", c.Stop())

	mustOK(t, "Start", c.Start())
	requireIllegal(t, "Start while running", c.Start())
	requireIllegal(t, "Connect while running", c.Connect(v))
	requireIllegal(t, "Disconnect while running", c.Disconnect())
	requireIllegal(t, "ReplaceModel while running", c.ReplaceModel(3))

	mustOK(t, "Stop", c.Stop())
	requireIllegal(t, "second Stop", c.Stop())
	mustOK(t, "Disconnect", c.Disconnect())

	if got := c.State(); got != "init" {
		t.Errorf("State() = %q, want init", got)
	}
}

func TestController_RendersModelsAndForwardsEvents(t *testing.T) {
	c := newCounterController()
	v := newRecordingView()
	mustOK(t, "Connect", c.Connect(v))
	mustOK(t, "Start", c.Start())
	defer c.Stop()

	if !c.IsRunning() || c.State() != "running" {
		t.Fatalf("State() = %q after Start", c.State())
	}

	v.emit("inc")
	v.emit("inc")

	if !v.models.WaitForCount(3, waitTimeout) {
		t.Fatalf("rendered %v, want 3 models", v.models.Values())
	}
	v.models.AssertValues(t, 0, 1, 2)
	if got := c.Model(); got != 2 {
		t.Errorf("Model() = %d, want 2", got)
	}
}

func TestController_StopResumesFromLastModel(t *testing.T) {
	c := newCounterController()
	v := newRecordingView()
	mustOK(t, "Connect", c.Connect(v))
	mustOK(t, "Start", c.Start())

	v.emit("inc")
	v.emit("inc")
	if !v.models.WaitForCount(3, waitTimeout) {
		t.Fatalf("rendered %v, want 3 models", v.models.Values())
	}

	mustOK(t, "Stop", c.Stop())
	if c.IsRunning() {
		t.Fatal("still running after Stop")
	}
	if got := c.Model(); got != 2 {
		t.Fatalf("Model() after Stop = %d, want 2", got)
	}

	// events while stopped are dropped
	v.emit("inc")
	if got := c.Model(); got != 2 {
		t.Errorf("Model() = %d after event while stopped, want 2", got)
	}

	mustOK(t, "restart", c.Start())
	defer c.Stop()
	v.emit("inc")

	if !v.models.WaitForCount(5, waitTimeout) {
		t.Fatalf("rendered %v, want 5 models", v.models.Values())
	}
	v.models.AssertValues(t, 0, 1, 2, 2, 3)
}

func TestController_ReplaceModel(t *testing.T) {
	c := newCounterController()
	v := newRecordingView()

	mustOK(t, "ReplaceModel before Connect", c.ReplaceModel(5))
	mustOK(t, "Connect", c.Connect(v))
	mustOK(t, "ReplaceModel after Connect", c.ReplaceModel(10))
	if got := c.Model(); got != 10 {
		t.Errorf("Model() = %d, want 10", got)
	}

	mustOK(t, "Start", c.Start())
	defer c.Stop()
	if !v.models.WaitForCount(1, waitTimeout) {
		t.Fatal("start model not rendered")
	}
	v.models.AssertValues(t, 10)
}

func TestController_DisconnectDisposesView(t *testing.T) {
	c := newCounterController()
	v := newRecordingView()
	mustOK(t, "Connect", c.Connect(v))
	mustOK(t, "Disconnect", c.Disconnect())

	if !v.disposed.Load() {
		t.Error("view connection not disposed")
	}
	// a stale consumer is harmless
	v.emit("inc")
	if got := c.Model(); got != 0 {
		t.Errorf("Model() = %d, want 0", got)
	}

	// the controller can be connected again
	mustOK(t, "reconnect", c.Connect(newRecordingView()))
}

func TestController_ConnectFailureKeepsInitState(t *testing.T) {
	c := newCounterController()
	boom := errors.New("no display")
	v := newRecordingView()
	v.failWith = boom

	err := c.Connect(v)
	if !errors.Is(err, boom) {
		t.Fatalf("Connect: got %v, want %v", err, boom)
	}
	if got := c.State(); got != "init" {
		t.Errorf("State() = %q, want init", got)
	}
}

func TestController_NoRenderAfterStop(t *testing.T) {
	c := newCounterController()
	v := newRecordingView()
	mustOK(t, "Connect", c.Connect(v))
	mustOK(t, "Start", c.Start())
	if !v.models.WaitForCount(1, waitTimeout) {
		t.Fatal("start model not rendered")
	}
	mustOK(t, "Stop", c.Stop())
	mustOK(t, "Disconnect", c.Disconnect())

	time.Sleep(20 * time.Millisecond)
	if v.lateRender.Load() {
		t.Error("model rendered after dispose")
	}
	if n := v.models.ValueCount(); n != 1 {
		t.Errorf("rendered %d models, want 1", n)
	}
}

func TestController_DisposeReleasesViewRunner(t *testing.T) {
	factory := loopx.NewBuilder[int, counterEvent, counterEffect](counterUpdate, nil).
		WithEventRunner(runners.ImmediateProducer()).
		WithEffectRunner(runners.ImmediateProducer())
	viewRunner := testutil.NewTestWorkRunner()
	c := loopx.NewController[int, counterEvent, counterEffect](factory, 0,
		loopx.WithViewRunner(viewRunner))
	v := newRecordingView()

	mustOK(t, "Connect", c.Connect(v))
	requireIllegal(t, "Dispose while created", c.Dispose())
	mustOK(t, "Start", c.Start())
	requireIllegal(t, "Dispose while running", c.Dispose())
	mustOK(t, "Stop", c.Stop())
	mustOK(t, "Disconnect", c.Disconnect())

	if viewRunner.IsDisposed() {
		t.Fatal("view runner disposed before Dispose")
	}
	mustOK(t, "Dispose", c.Dispose())
	if !viewRunner.IsDisposed() {
		t.Error("view runner not disposed")
	}
	if got := c.State(); got != "disposed" {
		t.Errorf("State() = %q, want disposed", got)
	}

	mustOK(t, "second Dispose", c.Dispose())
	requireIllegal(t, "Connect after Dispose", c.Connect(newRecordingView()))
	requireIllegal(t, "ReplaceModel after Dispose", c.ReplaceModel(1))
}
