package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Material holds the fiber material parameters: linear stiffness K, the
// buckling coefficient D0, the onset of strain stiffening LambdaS and the
// stiffening coefficient DS.
type Material struct {
	K       float64 `yaml:"K"`
	D0      float64 `yaml:"D0"`
	LambdaS float64 `yaml:"LambdaS"`
	DS      float64 `yaml:"DS"`
}

// Parameters obtained from the YAML input file. Numeric fields left at zero
// defer to the solver defaults.
type InputParameters struct {
	Title           string   `yaml:"Title"`
	Material        Material `yaml:"Material"`
	Beams           int      `yaml:"Beams"`
	Stepper         float64  `yaml:"Stepper"`
	MaxIterations   int      `yaml:"MaxIterations"`
	RelConvCrit     float64  `yaml:"RelConvCrit"`
	Alpha           float64  `yaml:"Alpha"`
	Weighting       string   `yaml:"Weighting"`
	Workers         int      `yaml:"Workers"`
	CGTol           float64  `yaml:"CGTol"`
	CGMaxIterations int      `yaml:"CGMaxIterations"`
}

// Default returns the collagen gel baseline. Parsing a YAML file over it
// overrides only the keys present in the file.
func Default() InputParameters {
	return InputParameters{
		Title: "untitled",
		Material: Material{
			K:       1645,
			D0:      0.0008,
			LambdaS: 0.0075,
			DS:      0.033,
		},
		Beams:       300,
		RelConvCrit: 0.01,
		Alpha:       3e9,
		Weighting:   "huber",
	}
}

func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5g\t\t= Material.K\n", ip.Material.K)
	fmt.Printf("%8.5g\t\t= Material.D0\n", ip.Material.D0)
	fmt.Printf("%8.5g\t\t= Material.LambdaS\n", ip.Material.LambdaS)
	fmt.Printf("%8.5g\t\t= Material.DS\n", ip.Material.DS)
	fmt.Printf("[%d]\t\t\t= Beams\n", ip.Beams)
	fmt.Printf("%8.5g\t\t= Stepper\n", ip.Stepper)
	fmt.Printf("[%d]\t\t\t= MaxIterations\n", ip.MaxIterations)
	fmt.Printf("%8.5g\t\t= RelConvCrit\n", ip.RelConvCrit)
	fmt.Printf("%8.5g\t\t= Alpha\n", ip.Alpha)
	fmt.Printf("[%s]\t\t\t= Weighting\n", ip.Weighting)
	fmt.Printf("[%d]\t\t\t= Workers\n", ip.Workers)
}
