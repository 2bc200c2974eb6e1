package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sentibot-go/internal/config"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== SentiBot Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit bankroll and commission")
		fmt.Println("3) Edit signal thresholds")
		fmt.Println("4) Edit indicator sources")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch paper bot")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editBankroll(reader, cfg)
		case "3":
			editThresholds(reader, cfg)
		case "4":
			editSources(reader, cfg)
		case "5":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launchPaper(reader)
		case "7":
			reloaded, err := loadConfig()
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

func printSummary(cfg *config.Config) {
	p := cfg.Strategy.Params
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Feed: %s %s\n", cfg.Exchange.Provider, cfg.Exchange.Symbol)
	fmt.Printf("Starting cash: $%.2f\n", cfg.Paper.StartingCash)
	fmt.Printf("Commission: %.3f%%\n", cfg.Paper.Commission()*100)
	fmt.Printf("SMA windows: %d / %d (min history %d)\n", p.ShortWindow, p.LongWindow, p.MinHistory)
	fmt.Printf("Trade threshold: %.2f\n", p.TradeThreshold)
	fmt.Printf("Fear & Greed bands: extreme fear <= %d, fear <= %d, greed >= %d, extreme greed >= %d\n",
		p.ExtremeFear, p.Fear, p.Greed, p.ExtremeGreed)
	fmt.Printf("Sentiment bands: strong %.2f, mild %.2f\n", p.StrongSentiment, p.MildSentiment)
	fmt.Printf("Fear & Greed source: %s (every %ds)\n", onOff(cfg.Indicators.FearGreed.Enabled), cfg.Indicators.FearGreed.RefreshIntervalSecs)
	fmt.Printf("Reddit source: %s r/%s, %d posts (every %ds)\n", onOff(cfg.Indicators.Reddit.Enabled),
		cfg.Indicators.Reddit.Subreddit, cfg.Indicators.Reddit.SampleSize, cfg.Indicators.Reddit.RefreshIntervalSecs)
}

func editBankroll(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Bankroll ---")
	cfg.Paper.StartingCash = promptFloat(reader, "Starting cash", cfg.Paper.StartingCash)
	rate := promptPercent(reader, "Commission (%)", cfg.Paper.Commission())
	cfg.Paper.CommissionRate = &rate
}

func editThresholds(reader *bufio.Reader, cfg *config.Config) {
	p := &cfg.Strategy.Params
	fmt.Println("\n--- Edit Signal Thresholds ---")
	p.TradeThreshold = promptFloat(reader, "Trade threshold", p.TradeThreshold)
	p.ShortWindow = promptInt(reader, "Short SMA window", p.ShortWindow)
	p.LongWindow = promptInt(reader, "Long SMA window", p.LongWindow)
	p.MinHistory = promptInt(reader, "Min history", p.MinHistory)
	p.ExtremeFear = promptInt(reader, "Extreme fear (<=)", p.ExtremeFear)
	p.Fear = promptInt(reader, "Fear (<=)", p.Fear)
	p.Greed = promptInt(reader, "Greed (>=)", p.Greed)
	p.ExtremeGreed = promptInt(reader, "Extreme greed (>=)", p.ExtremeGreed)
	p.StrongSentiment = promptFloat(reader, "Strong sentiment", p.StrongSentiment)
	p.MildSentiment = promptFloat(reader, "Mild sentiment", p.MildSentiment)
}

func editSources(reader *bufio.Reader, cfg *config.Config) {
	ind := &cfg.Indicators
	fmt.Println("\n--- Edit Indicator Sources ---")
	ind.FearGreed.Enabled = promptBool(reader, "Fear & Greed enabled", ind.FearGreed.Enabled)
	ind.Reddit.Enabled = promptBool(reader, "Reddit enabled", ind.Reddit.Enabled)
	fmt.Printf("Subreddit [%s]: ", ind.Reddit.Subreddit)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		ind.Reddit.Subreddit = strings.TrimPrefix(strings.TrimSpace(line), "r/")
	}
	ind.Reddit.SampleSize = promptInt(reader, "Posts per sample", ind.Reddit.SampleSize)
}

func launchPaper(reader *bufio.Reader) {
	fmt.Println("Launching paper bot (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/paper", "-config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start bot: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the bot and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	fmt.Printf("%s [%d]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.Atoi(line)
	if err != nil {
		fmt.Printf("invalid number, keeping %d\n", current)
		return current
	}
	return val
}

func promptPercent(reader *bufio.Reader, label string, current float64) float64 {
	pct := promptFloat(reader, label, current*100)
	return pct / 100
}

func promptBool(reader *bufio.Reader, label string, current bool) bool {
	fmt.Printf("%s [%s]: ", label, onOff(current))
	line, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return current
	case "y", "yes", "on", "true", "1":
		return true
	case "n", "no", "off", "false", "0":
		return false
	default:
		fmt.Printf("unrecognized answer, keeping %s\n", onOff(current))
		return current
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
