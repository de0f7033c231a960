package purge

import (
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"workdeck/internal/core/entity"
)

// holdSet carries the compiled legal-hold programs of one policy.
// Expressions see the candidate row as flat variables and must yield a
// bool; true means the row survives the sweep.
type holdSet struct {
	programs map[entity.Kind]cel.Program
}

// holdEnv declares the variables hold expressions may reference.
func holdEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("id", cel.StringType),
		cel.Variable("tenant_id", cel.StringType),
		cel.Variable("deleted_at", cel.TimestampType),
		cel.Variable("age_days", cel.IntType),
	)
}

// compileHolds compiles every hold expression of a policy. Compilation
// happens once per policy load, never per row.
func compileHolds(holds map[entity.Kind]string) (*holdSet, error) {
	hs := &holdSet{programs: make(map[entity.Kind]cel.Program, len(holds))}
	if len(holds) == 0 {
		return hs, nil
	}

	env, err := holdEnv()
	if err != nil {
		return nil, fmt.Errorf("build hold environment: %w", err)
	}

	for kind, expr := range holds {
		ast, iss := env.Compile(expr)
		if iss.Err() != nil {
			return nil, fmt.Errorf("compile hold for %s: %w", kind, iss.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("hold for %s must evaluate to bool, got %s", kind, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program hold for %s: %w", kind, err)
		}
		hs.programs[kind] = prg
	}
	return hs, nil
}

// has reports whether the kind carries a hold expression.
func (h *holdSet) has(kind entity.Kind) bool {
	_, ok := h.programs[kind]
	return ok
}

// held evaluates the kind's hold against one candidate row. Rows
// without a deletion timestamp never reach here; the sweeper selects on
// deleted_at.
func (h *holdSet) held(rec entity.Record, now time.Time) (bool, error) {
	prg, ok := h.programs[rec.RecordKind()]
	if !ok {
		return false, nil
	}

	deletedAt := now
	if dt := rec.DeletedOn(); dt != nil {
		deletedAt = *dt
	}

	out, _, err := prg.Eval(map[string]any{
		"kind":       string(rec.RecordKind()),
		"id":         rec.RecordID().String(),
		"tenant_id":  rec.RecordTenant().String(),
		"deleted_at": deletedAt,
		"age_days":   int64(now.Sub(deletedAt).Hours() / 24),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate hold for %s %s: %w", rec.RecordKind(), rec.RecordID(), err)
	}

	held, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("hold for %s yielded %T, want bool", rec.RecordKind(), out.Value())
	}
	return held, nil
}
