// Package setup provides the terminal configuration wizard.
package setup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/vadiminshakov/swapcore/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes the yaml
// config to path.
func RunTUI(path string) error {
	var (
		listen      string
		walDir      string
		pair        string
		reserveA    string
		reserveB    string
		seedPool    bool
		confirmSave bool
	)

	// defaults
	listen = ":8080"
	walDir = "./wal"
	reserveA = "1000000"
	reserveB = "1000000"

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SWAPCORE CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up the pool service in a few steps.\n"))

	fmt.Println(stepStyle.Render("STEP 1: SERVICE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("HTTP listen address").
				Value(&listen),
			huh.NewInput().
				Title("WAL directory").
				Description("Pool records and the transfer journal live here").
				Value(&walDir),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SWAPCORE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: POOL"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Seed a pool at startup?").
				Value(&seedPool),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg := config.Config{
		Listen:         listen,
		PoolWALDir:     walDir + "/pools",
		TransferWALDir: walDir + "/transfers",
	}

	if seedPool {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Asset pair").
					Description("Must contain underscore (e.g. BTC_USDT)").
					Value(&pair).
					Validate(func(s string) error {
						parts := strings.Split(s, "_")
						if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
							return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. BTC_USDT)")
						}
						if parts[0] == parts[1] {
							return fmt.Errorf("assets must differ")
						}
						return nil
					}),
				huh.NewInput().
					Title("Initial reserve of the first asset").
					Value(&reserveA).
					Validate(validateUint),
				huh.NewInput().
					Title("Initial reserve of the second asset").
					Value(&reserveB).
					Validate(validateUint),
			),
		).Run()
		if err != nil {
			return err
		}

		parts := strings.Split(pair, "_")
		resA, _ := strconv.ParseUint(reserveA, 10, 64)
		resB, _ := strconv.ParseUint(reserveB, 10, 64)
		cfg.Pools = append(cfg.Pools, config.SeedPool{
			AssetA:   parts[0],
			AssetB:   parts[1],
			ReserveA: resA,
			ReserveB: resB,
		})
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SWAPCORE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: SAVE"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Write config to %s?", path)).
				Value(&confirmSave),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirmSave {
		fmt.Println("aborted, nothing written")
		return nil
	}

	if err := cfg.Write(path); err != nil {
		return err
	}
	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("Config saved. Start the service with: swapcore -config " + path))
	return nil
}

func validateUint(s string) error {
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}
