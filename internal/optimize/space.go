package optimize

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/ll101/project-algo-trading/internal/strategy"
)

// Space is a parameter search space for one strategy kind: each entry maps a
// parameter name to its candidate values.
type Space struct {
	Kind   strategy.Kind
	Values map[string][]interface{}
}

func (s Space) validate() error {
	if len(s.Values) == 0 {
		return fmt.Errorf("empty parameter space")
	}
	for name, values := range s.Values {
		if len(values) == 0 {
			return fmt.Errorf("parameter %q has no candidate values", name)
		}
	}
	return nil
}

// names returns the parameter names in a stable order
func (s Space) names() []string {
	names := make([]string, 0, len(s.Values))
	for name := range s.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// combinations enumerates the cartesian product of the space
func (s Space) combinations() []map[string]interface{} {
	names := s.names()
	out := []map[string]interface{}{{}}
	for _, name := range names {
		next := make([]map[string]interface{}, 0, len(out)*len(s.Values[name]))
		for _, partial := range out {
			for _, v := range s.Values[name] {
				combo := make(map[string]interface{}, len(partial)+1)
				for k, pv := range partial {
					combo[k] = pv
				}
				combo[name] = v
				next = append(next, combo)
			}
		}
		out = next
	}
	return out
}

// sample draws one random assignment from the space
func (s Space) sample(rng *rand.Rand) map[string]interface{} {
	combo := make(map[string]interface{}, len(s.Values))
	for _, name := range s.names() {
		values := s.Values[name]
		combo[name] = values[rng.Intn(len(values))]
	}
	return combo
}

// bind turns one assignment into typed strategy params
func (s Space) bind(values map[string]interface{}) (strategy.Params, error) {
	switch s.Kind {
	case strategy.KindMACrossover:
		p := strategy.DefaultMACrossoverParams()
		for name, v := range values {
			var err error
			switch name {
			case "short_window":
				p.ShortWindow, err = intValue(v)
			case "long_window":
				p.LongWindow, err = intValue(v)
			case "ma_type":
				var s string
				s, err = stringValue(v)
				p.MAType = strategy.MAType(s)
			default:
				err = fmt.Errorf("unknown parameter %q", name)
			}
			if err != nil {
				return nil, err
			}
		}
		return p, nil

	case strategy.KindBollinger:
		p := strategy.DefaultBollingerParams()
		for name, v := range values {
			var err error
			switch name {
			case "period":
				p.Period, err = intValue(v)
			case "dev_factor":
				p.DevFactor, err = floatValue(v)
			default:
				err = fmt.Errorf("unknown parameter %q", name)
			}
			if err != nil {
				return nil, err
			}
		}
		return p, nil

	case strategy.KindMACD:
		p := strategy.DefaultMACDParams()
		for name, v := range values {
			var err error
			switch name {
			case "fast_period":
				p.FastPeriod, err = intValue(v)
			case "slow_period":
				p.SlowPeriod, err = intValue(v)
			case "signal_period":
				p.SignalPeriod, err = intValue(v)
			default:
				err = fmt.Errorf("unknown parameter %q", name)
			}
			if err != nil {
				return nil, err
			}
		}
		return p, nil

	case strategy.KindVWAPReversion:
		p := strategy.DefaultVWAPReversionParams()
		for name, v := range values {
			var err error
			switch name {
			case "deviation_pct":
				p.DeviationPct, err = floatValue(v)
			default:
				err = fmt.Errorf("unknown parameter %q", name)
			}
			if err != nil {
				return nil, err
			}
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown strategy kind %q", s.Kind)
	}
}

func intValue(v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func floatValue(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func stringValue(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected string, got %T", v)
}
