package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"levelbot-go/internal/config"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	flag.Parse()
	path := filepath.Clean(*configPath)

	reader := bufio.NewReader(os.Stdin)

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== LevelBot Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit instruments")
		fmt.Println("3) Edit entry and level knobs")
		fmt.Println("4) Edit trading hours")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch signaler")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		switch strings.TrimSpace(input) {
		case "1":
			fmt.Println(summary(cfg))
		case "2":
			editSymbols(reader, cfg)
		case "3":
			editLevels(reader, cfg)
		case "4":
			editHours(reader, cfg)
		case "5":
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "not saved: %v\n", err)
			} else if err := config.Save(path, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launchSignaler(reader, path)
		case "7":
			reloaded, err := config.Load(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func summary(cfg *config.Config) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("Configuration")
	tw.AppendHeader(table.Row{"Setting", "Value"})
	tw.AppendRows([]table.Row{
		{"Instruments", strings.Join(cfg.CleanSymbols(), ", ")},
		{"Period", cfg.Period()},
		{"Analysis window", cfg.AnalysisWindow()},
		{"Entry window", cfg.EntryWindow()},
		{"Min distance (pips)", cfg.MinDistancePips},
		{"Min retracement", fmt.Sprintf("%.0f%%", cfg.MinRetracementPercent*100)},
		{"Trading hours", fmt.Sprintf("%02d:00-%02d:00 %s", cfg.TradingHours.StartHour, cfg.TradingHours.EndHour, cfg.TradingHours.Timezone)},
		{"Weekends", cfg.TradingHours.AllowWeekends},
	})
	tw.AppendSeparator()
	sr := cfg.SupportResistance
	tw.AppendRows([]table.Row{
		{"Min touches", sr.MinTouches},
		{"Min candles between touches", sr.MinDistanceBetweenTouches},
		{"Tolerance (pips)", sr.TolerancePips},
		{"Min region separation", sr.MinRegionSeparation},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Feed", cfg.Feed.Provider},
		{"Notifier", cfg.Notifier.Provider},
		{"News gate", cfg.News.Enabled},
		{"Status address", cfg.App.HTTPAddr},
	})
	return tw.Render()
}

func editSymbols(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Instruments ---")
	fmt.Printf("Current: %s\n", strings.Join(cfg.CleanSymbols(), ", "))
	fmt.Print("Enter instruments comma-separated (blank to keep): ")
	line, _ := reader.ReadString('\n')
	if strings.TrimSpace(line) == "" {
		return
	}
	var symbols []string
	for _, p := range strings.Split(line, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			symbols = append(symbols, strings.ToUpper(trimmed))
		}
	}
	if len(symbols) == 0 {
		fmt.Println("no instruments given, keeping current list")
		return
	}
	cfg.Symbols = symbols
}

func editLevels(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Entry / Levels ---")
	cfg.MinDistancePips = promptFloat(reader, "Min distance to level (pips)", cfg.MinDistancePips)
	cfg.MinRetracementPercent = promptPercent(reader, "Min retracement (%)", cfg.MinRetracementPercent)
	cfg.AnalysisWindowSeconds = promptInt(reader, "Analysis window (seconds)", cfg.AnalysisWindowSeconds)
	cfg.EntryWindowSeconds = promptInt(reader, "Entry window (seconds)", cfg.EntryWindowSeconds)
	sr := &cfg.SupportResistance
	sr.MinTouches = promptInt(reader, "Min touches", sr.MinTouches)
	sr.MinDistanceBetweenTouches = promptInt(reader, "Min candles between touches", sr.MinDistanceBetweenTouches)
	sr.TolerancePips = promptFloat(reader, "Tolerance (pips)", sr.TolerancePips)
	sr.MinRegionSeparation = promptInt(reader, "Min region separation", sr.MinRegionSeparation)
}

func editHours(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Trading Hours ---")
	cfg.TradingHours.StartHour = promptInt(reader, "Start hour", cfg.TradingHours.StartHour)
	cfg.TradingHours.EndHour = promptInt(reader, "End hour", cfg.TradingHours.EndHour)
	fmt.Printf("Timezone [%s]: ", cfg.TradingHours.Timezone)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.TradingHours.Timezone = strings.TrimSpace(line)
	}
}

func launchSignaler(reader *bufio.Reader, path string) {
	fmt.Println("Launching signaler (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/signaler", "-config", path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start signaler: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the signaler and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%g]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %g\n", current)
		return current
	}
	return val
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	return int(promptFloat(reader, label, float64(current)))
}

func promptPercent(reader *bufio.Reader, label string, current float64) float64 {
	return promptFloat(reader, label, current*100) / 100
}
