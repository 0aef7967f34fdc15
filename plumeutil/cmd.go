/*
Copyright © 2018 the Plume authors.
This file is part of Plume.

Plume is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Plume is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Plume.  If not, see <http://www.gnu.org/licenses/>.
*/

package plumeutil

import (
	"fmt"

	"github.com/lnashier/viper"
	log "github.com/sirupsen/logrus"
	"github.com/spatialmodel/plume"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to Plume.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "scenario",
			usage: `
              scenario specifies the TOML scenario file describing the
              release, the chemical, and the weather observation.`,
			shorthand:  "f",
			defaultVal: "scenario.toml",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path the GeoJSON results are written to.
              It overrides the output path in the scenario file when set.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), receptorsCmd.Flags()},
		},
		{
			name: "Grid.Spacing",
			usage: `
              Grid.Spacing is the distance between evaluation grid nodes [m].
              It overrides the spacing in the scenario file when positive.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), maxCmd.Flags()},
		},
		{
			name: "Grid.MaxDistance",
			usage: `
              Grid.MaxDistance is the furthest downwind distance evaluated [m].
              It overrides the extent in the scenario file when positive.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), maxCmd.Flags()},
		},
		{
			name: "MaxPoints",
			usage: `
              MaxPoints bounds the number of points evaluated in one request.`,
			defaultVal: 100000,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), receptorsCmd.Flags()},
		},
		{
			name: "CullThreshold",
			usage: `
              CullThreshold is the concentration [kg/m³] below which grid
              results are dropped from the output.`,
			defaultVal: 1.e-9,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PLUME")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(receptorsCmd)
	Root.AddCommand(maxCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("plume: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "plume",
	Short: "A toxic release dispersion model.",
	Long: `Plume estimates downwind concentrations from accidental chemical
releases using Gaussian dispersion for neutrally buoyant gases and a
two-regime similarity model for gases denser than air.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'PLUME_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Plume.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Plume v%s\n", plume.Version)
	},
	DisableAutoGenTag: true,
}

// gridCmd evaluates the scenario over a downwind grid and writes the
// surviving cells as GeoJSON.
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Evaluate concentrations over a downwind grid.",
	Long: `grid evaluates the scenario over a regular grid aligned with the wind
direction, classifies each cell's risk, and writes the result as a GeoJSON
FeatureCollection. Cells below the cull threshold are omitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, e, in, err := loadRun()
		if err != nil {
			return err
		}
		ests, err := e.EvaluateGrid(in.release, in.chemical, in.weather,
			s.Grid.Spacing, s.Grid.MaxDistance)
		if err != nil {
			return err
		}
		logDiagnostics(ests)
		log.Info(Summarize(ests).String())

		out := s.OutputFile
		if o := Cfg.GetString("OutputFile"); o != "" {
			out = o
		}
		if out == "" {
			return fmt.Errorf("plume: no output file specified")
		}
		return s.WriteGeoJSON(ests, out)
	},
	DisableAutoGenTag: true,
}

// receptorsCmd evaluates the scenario at the receptor locations given
// in the scenario file.
var receptorsCmd = &cobra.Command{
	Use:   "receptors",
	Short: "Evaluate concentrations at receptor locations.",
	Long: `receptors evaluates the scenario at the geographic receptor points in
the scenario file and writes the results as GeoJSON. Results are returned in
the order the receptors are listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, e, in, err := loadRun()
		if err != nil {
			return err
		}
		if len(s.Receptors) == 0 {
			return fmt.Errorf("plume: the scenario file lists no receptors")
		}
		pts, err := s.ReceptorPoints()
		if err != nil {
			return err
		}
		ests, err := e.EvaluateReceptors(in.release, in.chemical, in.weather, pts)
		if err != nil {
			return err
		}
		logDiagnostics(ests)
		for _, est := range ests {
			log.WithFields(log.Fields{
				"distance":      fmt.Sprintf("%.0f", est.Distance),
				"concentration": fmt.Sprintf("%.3g", est.Concentration),
				"risk":          est.Risk.String(),
			}).Info("receptor")
		}

		out := s.OutputFile
		if o := Cfg.GetString("OutputFile"); o != "" {
			out = o
		}
		if out == "" {
			return nil
		}
		return s.WriteGeoJSON(ests, out)
	},
	DisableAutoGenTag: true,
}

// maxCmd reports the maximum ground-level centerline concentration.
var maxCmd = &cobra.Command{
	Use:   "max",
	Short: "Find the maximum centerline concentration.",
	Long: `max samples the plume centerline at ground level out to the maximum
grid distance and reports the highest concentration found and the distance
at which it occurs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, e, in, err := loadRun()
		if err != nil {
			return err
		}
		dist, conc, err := e.MaxConcentrationAlongCenterline(in.release, in.chemical,
			in.weather, s.Grid.MaxDistance)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"distance":      fmt.Sprintf("%.0f", dist),
			"concentration": fmt.Sprintf("%.3g", conc),
			"risk":          e.ClassifyRisk(conc, in.chemical).String(),
		}).Info("centerline maximum")
		return nil
	},
	DisableAutoGenTag: true,
}

// runInputs holds the resolved engine inputs for one scenario.
type runInputs struct {
	release  *plume.Release
	chemical *plume.Chemical
	weather  *plume.WeatherObservation
}

// loadRun reads the scenario file named by the configuration, applies
// command-line overrides, and builds the engine.
func loadRun() (*ScenarioSpec, *plume.Engine, *runInputs, error) {
	path := Cfg.GetString("scenario")
	if !fileExists(path) {
		return nil, nil, nil, fmt.Errorf("plume: the scenario file %s doesn't exist", path)
	}
	s, err := LoadScenario(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if v := getFloat("Grid.Spacing"); v > 0 {
		s.Grid.Spacing = v
	}
	if v := getFloat("Grid.MaxDistance"); v > 0 {
		s.Grid.MaxDistance = v
	}

	rel, chem, w, err := s.Inputs()
	if err != nil {
		return nil, nil, nil, err
	}

	e := plume.NewEngine()
	if v := Cfg.GetInt("MaxPoints"); v > 0 {
		e.MaxPoints = v
	}
	if v := getFloat("CullThreshold"); v > 0 {
		e.CullThreshold = v
	}
	return s, e, &runInputs{release: rel, chemical: chem, weather: w}, nil
}

// getFloat returns the named configuration value as a float64,
// accounting for the fact that it might be a string if it was set
// through an environment variable.
func getFloat(name string) float64 {
	v, err := cast.ToFloat64E(Cfg.Get(name))
	if err != nil {
		return 0
	}
	return v
}

// logDiagnostics reports the distinct diagnostics attached to the
// estimates as warnings.
func logDiagnostics(ests []plume.ConcentrationEstimate) {
	seen := make(map[plume.DiagnosticCode]bool)
	for _, est := range ests {
		for _, d := range est.Diagnostics {
			if seen[d.Code] {
				continue
			}
			seen[d.Code] = true
			log.Warn(d.Message)
		}
	}
}
