package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pagesim/pagesim/simulator"
)

// scenarios maps preset names to built-in configurations.
var scenarios = map[string]func() simulator.SimConfig{
	"default":            simulator.DefaultConfig,
	"deadlock":           simulator.DeadlockConfig,
	"priority-inversion": simulator.PriorityInversionConfig,
	"starvation":         simulator.StarvationConfig,
	"thrashing":          simulator.ThrashingConfig,
}

func main() {
	// Parse command line flags
	configFile := flag.String("config", "", "Path to JSON configuration file")
	scenario := flag.String("scenario", "", "Built-in scenario: default, deadlock, priority-inversion, starvation, thrashing")
	maxSteps := flag.Int("max-steps", 10000, "Abort after this many steps if the run does not terminate")
	outputFile := flag.String("output", "", "Path to output JSON file (optional, prints to stdout if not specified)")
	breakDeadlocks := flag.Bool("break-deadlocks", false, "Force-release all locks when a deadlock is detected instead of stopping")
	verbose := flag.Bool("verbose", false, "Enable verbose event logging from simulator")
	flag.Parse()

	if *configFile == "" && *scenario == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s (-config <config.json> | -scenario <name>) [-max-steps <n>] [-output <output.json>] [-break-deadlocks] [-verbose]\n", os.Args[0])
		os.Exit(1)
	}

	var config simulator.SimConfig
	if *configFile != "" {
		configData, err := os.ReadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(configData, &config); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing config JSON: %v\n", err)
			os.Exit(1)
		}
	} else {
		preset, ok := scenarios[*scenario]
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown scenario %q\n", *scenario)
			os.Exit(1)
		}
		config = preset()
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create simulator
	sim, err := simulator.NewSimulator(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating simulator: %v\n", err)
		os.Exit(1)
	}

	// Set up LogEvent callback to capture simulator logs
	if *verbose {
		sim.LogEvent = func(msg string) {
			fmt.Fprintf(os.Stderr, "[SIM] %s\n", msg)
		}
		fmt.Fprintf(os.Stderr, "Verbose logging enabled\n")
	}

	sim.Reset()

	// Run simulation
	fmt.Fprintf(os.Stderr, "Starting simulation (%d page references total)...\n", sim.TotalSteps())
	startTime := time.Now()

	result := simulator.StepContinue
	deadlocksBroken := 0
	for steps := 0; steps < *maxSteps; steps++ {
		result = sim.ExecuteStep()
		if result == simulator.StepCompleted {
			break
		}
		if result == simulator.StepDeadlocked {
			if !*breakDeadlocks {
				break
			}
			fmt.Fprintf(os.Stderr, "Deadlock detected at step %d, force-releasing locks\n", sim.CurrentStep())
			sim.BreakDeadlock()
			deadlocksBroken++
		}
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "Simulation finished: %s after %d steps (%v)\n", result, sim.CurrentStep(), elapsed)
	if result == simulator.StepDeadlocked {
		fmt.Fprintln(os.Stderr, simulator.VisualizeWaitGraph(sim.Threads(), sim.Locks()))
	}

	// Gather results
	results := map[string]interface{}{
		"config":          config,
		"result":          result.String(),
		"steps":           sim.CurrentStep(),
		"deadlocksBroken": deadlocksBroken,
		"realTime":        elapsed.Seconds(),
		"metrics":         sim.Metrics(),
		"state":           sim.State(),
		"timeline":        sim.Timeline(),
	}

	// Output results
	output, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling results: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}
