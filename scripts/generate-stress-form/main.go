package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type option struct {
	Value   string `yaml:"dataValue"`
	Display string `yaml:"displayValue"`
}

type item struct {
	Label          string   `yaml:"label"`
	Type           string   `yaml:"type"`
	Options        []option `yaml:"options,omitempty"`
	VisibilityRule string   `yaml:"visibilityRule,omitempty"`
}

type page struct {
	Items []item `yaml:"pageItems"`
}

type document struct {
	Name  string `yaml:"name"`
	Pages []page `yaml:"pages"`
}

func main() {
	var (
		gates      = flag.Int("gates", 4, "number of gating select questions")
		options    = flag.Int("options", 3, "options per gating question")
		children   = flag.Int("children", 3, "data collection questions per gate")
		nested     = flag.Float64("nested", 0.3, "probability a child also depends on the previous gate")
		seed       = flag.Uint64("seed", 1, "random seed")
		outputPath = flag.String("output", "testdata/stress_form.yaml", "output path for the generated form")
	)
	flag.Parse()

	doc := generate(*gates, *options, *children, *nested, *seed)
	payload, err := yaml.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode form: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputPath, payload, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write form: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("stress form written to %s\n", *outputPath)
}

func generate(gates, options, children int, nested float64, seed uint64) document {
	rng := rand.New(rand.NewPCG(seed, seed))
	doc := document{Name: fmt.Sprintf("Stress %dx%dx%d", gates, options, children)}

	for g := 1; g <= gates; g++ {
		gate := item{Label: "Gate" + strconv.Itoa(g), Type: "select"}
		for o := 1; o <= options; o++ {
			value := "v" + strconv.Itoa(o)
			gate.Options = append(gate.Options, option{Value: value, Display: "Value " + strconv.Itoa(o)})
		}
		p := page{Items: []item{gate}}
		for c := 1; c <= children; c++ {
			rule := fmt.Sprintf("%s == %q", gate.Label, "v"+strconv.Itoa(rng.IntN(options)+1))
			if g > 1 && rng.Float64() < nested {
				rule += fmt.Sprintf(" && Gate%d != %q", g-1, "v1")
			}
			p.Items = append(p.Items, item{
				Label:          fmt.Sprintf("Gate%dChild%d", g, c),
				Type:           "text",
				VisibilityRule: rule,
			})
		}
		doc.Pages = append(doc.Pages, p)
	}
	return doc
}
