package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/doppelganger/rewind/internal/world"
)

// Engine wraps a single gopher-lua VM for guard decisions.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	fallback world.GuardBrain
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, fallback: world.DefaultBrain{}}

	// Core helpers first so ai scripts can use them.
	for _, sub := range []string{"core", "ai"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasGuardAI reports whether a script defined guard_ai.
func (e *Engine) HasGuardAI() bool {
	return e.vm.GetGlobal("guard_ai") != lua.LNil
}

// Decide calls Lua guard_ai(ctx) and maps the returned action name.
// Without the function, or on a script error, the built-in brain decides.
func (e *Engine) Decide(v world.GuardView) world.GuardAction {
	fn := e.vm.GetGlobal("guard_ai")
	if fn == lua.LNil {
		return e.fallback.Decide(v)
	}

	t := e.vm.NewTable()
	t.RawSetString("step", lua.LNumber(v.Step))
	t.RawSetString("x", lua.LNumber(v.X))
	t.RawSetString("y", lua.LNumber(v.Y))
	t.RawSetString("facing", lua.LNumber(v.Facing))
	t.RawSetString("cooldown", lua.LNumber(v.Cooldown))
	t.RawSetString("patrol_min", lua.LNumber(v.PatrolMin))
	t.RawSetString("patrol_max", lua.LNumber(v.PatrolMax))
	t.RawSetString("target_id", lua.LNumber(v.Target))
	t.RawSetString("target_dist", lua.LNumber(v.TargetDistance))
	t.RawSetString("has_target", lua.LBool(v.Target != 0))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua guard_ai error", zap.Error(err), zap.Int("step", v.Step))
		return e.fallback.Decide(v)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	switch r := result.(type) {
	case lua.LString:
		return world.ParseGuardAction(string(r))
	case *lua.LTable:
		return world.ParseGuardAction(lStr(r, "action"))
	}
	e.log.Warn("lua guard_ai returned unexpected value", zap.String("type", result.Type().String()))
	return world.GuardIdle
}

// --- Lua helpers ---

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
