package smoketest

import (
	"math"
	"math/rand/v2"
)

// formOptions mirrors GET /form-options.
type formOptions struct {
	Fields []struct {
		Name string  `json:"name"`
		Kind string  `json:"kind"`
		Min  float64 `json:"min"`
		Max  float64 `json:"max"`
		Step float64 `json:"step"`
	} `json:"fields"`
	Groups []struct {
		Name    string   `json:"name"`
		Options []string `json:"options"`
	} `json:"groups"`
}

// predictRequest mirrors the POST /predict body.
type predictRequest struct {
	Address string            `json:"address"`
	Fields  map[string]any    `json:"fields"`
	Choices map[string]string `json:"choices"`
}

// generate builds n requests with values inside each field's range.
func generate(opts formOptions, addresses []string, n int, seed uint64) []predictRequest {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]predictRequest, n)
	for i := range out {
		req := predictRequest{
			Address: addresses[rng.IntN(len(addresses))],
			Fields:  make(map[string]any, len(opts.Fields)),
			Choices: make(map[string]string, len(opts.Groups)),
		}
		for _, f := range opts.Fields {
			switch f.Kind {
			case "bool":
				req.Fields[f.Name] = rng.IntN(2) == 1
			default:
				req.Fields[f.Name] = sample(rng, f.Min, f.Max, f.Step)
			}
		}
		for _, g := range opts.Groups {
			if len(g.Options) > 0 {
				req.Choices[g.Name] = g.Options[rng.IntN(len(g.Options))]
			}
		}
		out[i] = req
	}
	return out
}

func sample(rng *rand.Rand, lo, hi, step float64) float64 {
	if hi <= lo {
		return lo
	}
	v := lo + rng.Float64()*(hi-lo)
	if step > 0 {
		v = lo + math.Floor((v-lo)/step)*step
	}
	return v
}
