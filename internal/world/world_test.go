package world

import (
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
	"github.com/doppelganger/rewind/internal/core/timeline"
)

// fakeWorld is a minimal Accessor over a fixed set of entities.
type fakeWorld struct {
	step     int
	live     ecs.EntityID
	entities map[ecs.EntityID]Entity
	emitted  []event.Event
	brain    GuardBrain
}

func newFakeWorld(es ...Entity) *fakeWorld {
	w := &fakeWorld{entities: make(map[ecs.EntityID]Entity)}
	for _, e := range es {
		w.entities[e.ID()] = e
	}
	return w
}

func (w *fakeWorld) Step() int                { return w.step }
func (w *fakeWorld) LivePlayer() ecs.EntityID { return w.live }
func (w *fakeWorld) Brain() GuardBrain        { return w.brain }
func (w *fakeWorld) Emit(ev event.Event)      { w.emitted = append(w.emitted, ev) }

func (w *fakeWorld) Entity(id ecs.EntityID) (Entity, bool) {
	e, ok := w.entities[id]
	if !ok || !e.Active() || e.Destroyed() {
		return nil, false
	}
	return e, true
}

func (w *fakeWorld) Overlapping(r Rect, kinds ...Kind) []Entity {
	var out []Entity
	for _, e := range w.entities {
		if !e.Active() || e.Destroyed() || !e.Bounds().Overlaps(r) {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, e.Kind()) {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entity) int { return int(a.ID() - b.ID()) })
	return out
}

func (w *fakeWorld) Spawn(k Kind, pos mgl64.Vec2) (Entity, error) {
	e, err := New(k)
	if err != nil {
		return nil, err
	}
	Bind(e, ecs.EntityID(len(w.entities)+100), true)
	e.SetPosition(pos)
	w.entities[e.ID()] = e
	return e, nil
}

func bound[T Entity](e T, id ecs.EntityID) T {
	Bind(e, id, false)
	return e
}

func TestRoundTripLaw(t *testing.T) {
	cases := []struct {
		name string
		e    Entity
		mut  func(Entity)
	}{
		{"player", NewPlayer(), func(e Entity) {
			p := e.(*Player)
			p.SetMotion(mgl64.Vec2{3, 4}, mgl64.Vec2{1, -2}, true)
			p.Facing = -1
			p.Input = Input{X: -1, Jump: true, Grab: true}
			p.Held = 9
		}},
		{"crate", NewCrate(), func(e Entity) {
			c := e.(*Crate)
			c.SetMotion(mgl64.Vec2{7, 1}, mgl64.Vec2{2, 0}, false)
			c.SetHeldBy(4)
		}},
		{"explosive", NewExplosive(), func(e Entity) {
			x := e.(*Explosive)
			x.SetMotion(mgl64.Vec2{2, 2}, mgl64.Vec2{0, 3}, false)
			x.Arm()
		}},
		{"guard", NewGuard(), func(e Entity) {
			g := e.(*Guard)
			g.SetMotion(mgl64.Vec2{5, 0}, mgl64.Vec2{-3, 0}, true)
			g.Facing, g.Cooldown = -1, 12
		}},
		{"machine", NewTimeMachine(), func(e Entity) {
			m := e.(*TimeMachine)
			m.Activate(3)
			m.Countdown.History = 40
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			Bind(tc.e, 1, false)
			tc.mut(tc.e)
			h := timeline.NewHistory(0)
			tc.e.Save(&Slice{Step: 5, h: h})

			fresh, _ := New(tc.e.Kind())
			Bind(fresh, 1, false)
			fresh.LoadForPlayback(&Slice{Step: 5, Past: true, h: h})
			if fresh.Position() != tc.e.Position() || fresh.Velocity() != tc.e.Velocity() {
				t.Fatalf("expected pos=%v vel=%v, got pos=%v vel=%v", tc.e.Position(), tc.e.Velocity(), fresh.Position(), fresh.Velocity())
			}

			h2 := timeline.NewHistory(0)
			fresh.Save(&Slice{Step: 5, h: h2})
			for _, name := range h.Names() {
				if h.Field(name).Format(5) != h2.Field(name).Format(5) {
					t.Fatalf("field %s: expected %s, got %s", name, h.Field(name).Format(5), h2.Field(name).Format(5))
				}
			}
		})
	}
}

func TestPlaybackLeavesDestroyFlagToLoader(t *testing.T) {
	h := timeline.NewHistory(0)
	c := bound(NewCrate(), 1)
	c.SetDestroyed(true)
	c.Save(&Slice{Step: 2, h: h})

	fresh := bound(NewCrate(), 1)
	fresh.LoadForPlayback(&Slice{Step: 2, h: h})
	if fresh.Destroyed() {
		t.Fatalf("expected playback to keep the live destroy flag")
	}
	fresh.ForceLoad(&Slice{Step: 2, h: h})
	if !fresh.Destroyed() {
		t.Fatalf("expected force load to apply the recorded destroy flag")
	}
}

func TestCopyFromRejectsOtherKinds(t *testing.T) {
	p := bound(NewPlayer(), 1)
	if err := p.CopyFrom(bound(NewCrate(), 2)); err == nil {
		t.Fatalf("expected ErrIncompatibleKind")
	}
	src := bound(NewPlayer(), 3)
	src.SetPosition(mgl64.Vec2{1, 2})
	if err := p.CopyFrom(src); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if p.ID() != 1 || p.Position() != (mgl64.Vec2{1, 2}) {
		t.Fatalf("expected copied position and kept ID, got id=%d pos=%v", p.ID(), p.Position())
	}
}

func TestDestroyedSaveClearsFuture(t *testing.T) {
	h := timeline.NewHistory(0)
	c := bound(NewCrate(), 1)
	for step := 0; step < 10; step++ {
		c.SetPosition(mgl64.Vec2{float64(step), 0})
		c.Save(&Slice{Step: step, h: h})
	}
	c.SetPosition(mgl64.Vec2{4, 0})
	c.SetDestroyed(true)
	c.Save(&Slice{Step: 4, h: h, Force: true})
	if got := timeline.Get(h, FieldPosition, 9, mgl64.Vec2{}); got.X() != 4 {
		t.Fatalf("expected positions after step 4 dropped, got %v", got)
	}
}

func TestAlreadyDestroyedGraceStep(t *testing.T) {
	s := NewState("test")
	s.Tracked[1] = true
	c := bound(NewCrate(), 1)
	c.Save(s.SaveSlice(1, 0, false))
	c.SetDestroyed(true)
	c.Save(s.SaveSlice(1, 3, false))

	if !s.ExistsAt(1, 3) {
		t.Fatalf("expected entity to exist on its destroy step")
	}
	if s.ExistsAt(1, 4) {
		t.Fatalf("expected entity gone the step after")
	}
	if !s.ExistsAt(1, 2) {
		t.Fatalf("expected entity to exist before destruction")
	}
}

func TestStateCloneIsDeep(t *testing.T) {
	s := NewState("test")
	s.Tracked[1] = true
	p := bound(NewPlayer(), 1)
	p.Save(s.SaveSlice(1, 0, false))
	cp := s.Clone()

	s.IDs.Next()
	s.Tracked[2] = true
	p.SetPosition(mgl64.Vec2{9, 9})
	p.Save(s.SaveSlice(1, 1, false))

	if cp.IDs.Peek() != 1 || cp.Tracked[2] {
		t.Fatalf("expected clone untouched by later allocation")
	}
	h, _ := cp.Histories.Get(1)
	if got := timeline.Get(h, FieldPosition, 1, mgl64.Vec2{}); got != (mgl64.Vec2{}) {
		t.Fatalf("expected clone history unchanged, got %v", got)
	}
}

func TestPlayerGrabEmitsForFreeItem(t *testing.T) {
	p := bound(NewPlayer(), 1)
	c := bound(NewCrate(), 2)
	c.SetPosition(mgl64.Vec2{0.9, 0.5})
	w := newFakeWorld(p, c)
	p.Input.Grab = true
	p.Update(w)
	if len(w.emitted) != 1 || w.emitted[0].Type != event.TypeGrab || w.emitted[0].Target != 2 {
		t.Fatalf("expected grab of crate 2, got %v", w.emitted)
	}

	w.emitted = nil
	c.SetHeldBy(7)
	p.Update(w)
	if len(w.emitted) != 0 {
		t.Fatalf("expected no grab of a held crate, got %v", w.emitted)
	}
}

func TestDestroyReleasesHeldItem(t *testing.T) {
	p := bound(NewPlayer(), 1)
	c := bound(NewCrate(), 2)
	p.Held, c.heldBy = 2, 1
	w := newFakeWorld(p, c)
	if !Destroy(w, p) {
		t.Fatalf("expected first destroy to apply")
	}
	if Destroy(w, p) {
		t.Fatalf("expected second destroy to be ignored")
	}
	if c.HeldBy() != ecs.None || p.Held != ecs.None {
		t.Fatalf("expected hold released, got crate.heldBy=%d player.held=%d", c.HeldBy(), p.Held)
	}
}

func TestExplosiveFuse(t *testing.T) {
	x := bound(NewExplosive(), 3)
	x.FuseSteps = 2
	w := newFakeWorld(x)
	x.Update(w)
	if len(w.emitted) != 0 {
		t.Fatalf("expected disarmed explosive to stay quiet")
	}
	x.Arm()
	x.Update(w)
	x.Update(w)
	x.Update(w)
	if len(w.emitted) != 1 || w.emitted[0].Type != event.TypeExplode || w.emitted[0].Source != 3 {
		t.Fatalf("expected a single explode event, got %v", w.emitted)
	}
}

func TestExplosionDestroysInRadius(t *testing.T) {
	near := bound(NewCrate(), 1)
	near.SetPosition(mgl64.Vec2{1, 0})
	far := bound(NewCrate(), 2)
	far.SetPosition(mgl64.Vec2{20, 0})
	chained := bound(NewExplosive(), 3)
	chained.SetPosition(mgl64.Vec2{-1, 0})
	boom := bound(NewExplosion(), 4)
	boom.Place(mgl64.Vec2{0.5, 0.5}, 2)
	w := newFakeWorld(near, far, chained, boom)

	boom.Update(w)
	if !near.Destroyed() || far.Destroyed() {
		t.Fatalf("expected only the near crate destroyed, got near=%v far=%v", near.Destroyed(), far.Destroyed())
	}
	if len(w.emitted) != 1 || w.emitted[0].Source != 3 {
		t.Fatalf("expected chained explode from 3, got %v", w.emitted)
	}
	for i := 1; i < ExplosionSteps; i++ {
		boom.Update(w)
	}
	if !boom.Destroyed() {
		t.Fatalf("expected explosion to burn out after %d steps", ExplosionSteps)
	}
}

func TestMachineCountdownSkipsActivationStep(t *testing.T) {
	m := bound(NewTimeMachine(), 5)
	m.CountdownSteps = 2
	p := bound(NewPlayer(), 1)
	p.SetPosition(mgl64.Vec2{0.2, 0.2})
	w := newFakeWorld(m, p)
	w.live = 1

	m.Activate(10)
	m.Update(w)
	if m.Countdown.Current != 2 {
		t.Fatalf("expected no tick on activation step, got %d", m.Countdown.Current)
	}
	m.EndStep()
	m.Update(w)
	m.Update(w)
	if m.Countdown.Current != timeline.Unset {
		t.Fatalf("expected countdown to finish, got %d", m.Countdown.Current)
	}
	if len(w.emitted) != 1 || w.emitted[0].Type != event.TypeTimeTravel || w.emitted[0].Target != 5 {
		t.Fatalf("expected time travel into machine 5, got %v", w.emitted)
	}
}

func TestMachineIntentLoadsHistoryPhaseOnlyInPast(t *testing.T) {
	h := timeline.NewHistory(0)
	rec := bound(NewTimeMachine(), 1)
	rec.Activate(0)
	rec.Save(&Slice{Step: 0, h: h})

	m := bound(NewTimeMachine(), 1)
	m.LoadIntent(&Slice{Step: 0, h: h})
	if m.Running() {
		t.Fatalf("expected present playback to leave the machine alone")
	}
	m.LoadIntent(&Slice{Step: 0, h: h, Past: true})
	if !m.Activated.History || m.Countdown.History != DefaultCountdownSteps {
		t.Fatalf("expected history phase loaded, got %+v %+v", m.Activated, m.Countdown)
	}
	if m.Countdown.Current != timeline.Unset {
		t.Fatalf("expected current phase untouched, got %d", m.Countdown.Current)
	}
}

func TestDefaultBrain(t *testing.T) {
	cases := []struct {
		name string
		v    GuardView
		want GuardAction
	}{
		{"patrol", GuardView{X: 0, Facing: 1, PatrolMin: -5, PatrolMax: 5}, GuardWalk},
		{"turn at edge", GuardView{X: 5, Facing: 1, PatrolMin: -5, PatrolMax: 5}, GuardTurn},
		{"shoot", GuardView{Target: 2}, GuardShoot},
		{"reload", GuardView{Target: 2, Cooldown: 3}, GuardIdle},
	}
	for _, tc := range cases {
		if got := (DefaultBrain{}).Decide(tc.v); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestGuardShootsVisiblePlayer(t *testing.T) {
	g := bound(NewGuard(), 1)
	p := bound(NewPlayer(), 2)
	p.SetPosition(mgl64.Vec2{4, 0})
	w := newFakeWorld(g, p)
	g.Update(w)
	if len(w.emitted) != 1 || w.emitted[0].Type != event.TypeShoot || w.emitted[0].Target != 2 {
		t.Fatalf("expected shot at player 2, got %v", w.emitted)
	}

	w.emitted = nil
	g.Cooldown = 0
	wall := bound(NewCrate(), 3)
	wall.SetPosition(mgl64.Vec2{2, 0.5})
	w.entities[3] = wall
	g.Update(w)
	if len(w.emitted) != 0 {
		t.Fatalf("expected crate to block line of sight, got %v", w.emitted)
	}
}

func TestExitZones(t *testing.T) {
	z := ExitZones{{X: 10, Y: 0, W: 1, H: 2}}
	p := bound(NewPlayer(), 1)
	if z.Touching(p) {
		t.Fatalf("expected player at origin outside the exit")
	}
	p.SetPosition(mgl64.Vec2{9.5, 0})
	if !z.Touching(p) {
		t.Fatalf("expected player overlapping the exit")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("expected %s, got %v (%v)", k, got, err)
		}
	}
	if _, err := ParseKind("dragon"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestPastWriteDoesNotLeakForward(t *testing.T) {
	h := timeline.NewHistory(0)
	(&Slice{Step: 0, h: h}).SetInt(FieldCountdownHistory, timeline.Unset, timeline.Unset)

	past := &Slice{Step: 3, h: h, Past: true, Pin: true}
	past.SetInt(FieldCountdownHistory, 7, timeline.Unset)

	if got := (&Slice{Step: 4, h: h}).Int(FieldCountdownHistory, timeline.Unset); got != timeline.Unset {
		t.Fatalf("expected step 4 to keep its recorded value, got %d", got)
	}
	if got := (&Slice{Step: 3, h: h}).Int(FieldCountdownHistory, timeline.Unset); got != 7 {
		t.Fatalf("expected 7 at step 3, got %d", got)
	}
}
