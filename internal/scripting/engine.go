package scripting

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed lua/formulas.lua
var defaultFormulas string

// Engine wraps a single gopher-lua VM holding the progression formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine with the embedded formulas, then loads every
// .lua file in dir (sorted) on top of them. dir may be empty.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := vm.DoString(defaultFormulas); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load embedded formulas: %w", err)
	}
	if dir != "" {
		if err := e.loadDir(dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// call invokes a global function with one argument and returns its numeric
// result. ok is false when the function is missing, errors, or returns a
// non-number.
func (e *Engine) call(name string, arg lua.LValue) (float64, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("fn", name))
		return 0, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		e.log.Error("lua call error", zap.String("fn", name), zap.Error(err))
		return 0, false
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok || math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
		e.log.Error("lua returned non-number", zap.String("fn", name), zap.String("type", ret.Type().String()))
		return 0, false
	}
	return float64(n), true
}

// XPToNext returns the xp needed to leave `level`.
func (e *Engine) XPToNext(level int) int {
	v, ok := e.call("xp_to_next", lua.LNumber(level))
	if !ok || v < 1 {
		return XPToNext(level)
	}
	return int(v)
}

// RunGoldContext holds the end-of-run stats the gold formula reads.
type RunGoldContext struct {
	Survival  float64 // seconds
	Kills     int
	BossKills int
	Level     int
	Greed     float64 // additive gold bonus from meta upgrades
}

// RunGold returns gold earned by a finished run.
func (e *Engine) RunGold(ctx RunGoldContext) int {
	t := e.vm.NewTable()
	t.RawSetString("survival", lua.LNumber(ctx.Survival))
	t.RawSetString("kills", lua.LNumber(ctx.Kills))
	t.RawSetString("boss_kills", lua.LNumber(ctx.BossKills))
	t.RawSetString("level", lua.LNumber(ctx.Level))
	t.RawSetString("greed", lua.LNumber(ctx.Greed))
	v, ok := e.call("run_gold", t)
	if !ok || v < 0 {
		return RunGold(ctx)
	}
	return int(v)
}

// EliteContext holds the elite roll inputs.
type EliteContext struct {
	Minutes float64
	Base    float64
	Slope   float64
	Cap     float64
}

// EliteChance returns the elite promotion probability, clamped to [0, 1].
func (e *Engine) EliteChance(ctx EliteContext) float64 {
	t := e.vm.NewTable()
	t.RawSetString("minutes", lua.LNumber(ctx.Minutes))
	t.RawSetString("base", lua.LNumber(ctx.Base))
	t.RawSetString("slope", lua.LNumber(ctx.Slope))
	t.RawSetString("cap", lua.LNumber(ctx.Cap))
	v, ok := e.call("elite_chance", t)
	if !ok {
		return EliteChance(ctx)
	}
	return math.Max(0, math.Min(1, v))
}
