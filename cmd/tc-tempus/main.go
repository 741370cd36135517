// tc-tempus — передатчик сигналов точного времени (DCF77, WWVB, JJY40, JJY60, MSF)
// на несущей, синтезированной генератором одноплатного компьютера.
//
// Использование:
//
//	tc-tempus -s DCF77                      — передавать текущее время
//	tc-tempus -s WWVB -t "2026-10-18 14:30" — передавать заданное время
//	tc-tempus -s MSF -n                     — пробный прогон одной минуты без оборудования
//	tc-tempus -c tc-tempus.yml              — параметры из конфига (флаги важнее)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/config"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/logger"
	"github.com/shiwa/timecard-mini/tc-tempus/pkg/transmit"
)

var version = "dev"

const defaultConfig = "tc-tempus.yml"

func main() {
	fs := flag.NewFlagSet("tc-tempus", flag.ContinueOnError)
	standard := fs.StringP("standard", "s", "", "стандарт: DCF77, WWVB, JJY40, JJY60, MSF")
	at := fs.StringP("time", "t", "", `передаваемое местное время "YYYY-MM-DD HH:MM" (по умолчанию текущее)`)
	zone := fs.IntP("zone-offset", "z", 0, "сдвиг передаваемого времени в минутах")
	runMinutes := fs.IntP("run-minutes", "r", 0, "остановиться через N минут (0 — без ограничения)")
	verbose := fs.BoolP("verbose", "v", false, "подробный вывод по секундам")
	dryRun := fs.BoolP("dry-run", "n", false, "без оборудования и ожидания: одна минута и диаграмма огибающей")
	configPath := fs.StringP("config", "c", "", "путь к YAML конфигу (по умолчанию "+defaultConfig+", если есть)")
	backend := fs.StringP("backend", "b", "", "бэкенд несущей: "+strings.Join(config.Backends, ", "))
	showVersion := fs.Bool("version", false, "показать версию и выйти")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return
		}
		os.Exit(1)
	}
	if *showVersion {
		fmt.Println("tc-tempus", version)
		return
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "tc-tempus: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tc-tempus: %v\n", err)
		os.Exit(1)
	}

	tx := &cfg.Transmitter
	if fs.Changed("standard") {
		tx.Standard = *standard
	}
	if fs.Changed("time") {
		tx.Time = *at
	}
	if fs.Changed("zone-offset") {
		tx.ZoneOffsetMinutes = *zone
	}
	if fs.Changed("run-minutes") {
		tx.RunMinutes = *runMinutes
	}
	if fs.Changed("verbose") {
		tx.Verbose = *verbose
	}
	if fs.Changed("dry-run") {
		tx.DryRun = *dryRun
	}
	if fs.Changed("backend") {
		cfg.Hardware.Backend = strings.ToLower(strings.TrimSpace(*backend))
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "tc-tempus: %v\n", err)
		os.Exit(1)
	}
	logger.Verbose = tx.Verbose

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("получен сигнал %v, остановка передачи...", sig)
		cancel()
	}()

	if err := transmit.Run(ctx, cfg); err != nil {
		logger.Error("%v", err)
		cancel()
		os.Exit(1)
	}
}

// loadConfig читает явно указанный конфиг или tc-tempus.yml, если он есть;
// иначе возвращает конфиг по умолчанию.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfig); err != nil {
		return config.Default(), nil
	}
	return config.Load(defaultConfig)
}
