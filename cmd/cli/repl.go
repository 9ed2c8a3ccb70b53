package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"perovskite-chain/core"
	"perovskite-chain/pkg/config"
)

const menu = `
1) Register panel
2) Get balance
3) Create transaction
4) Execute contract
5) Show chain info
6) Exit
> `

func runInteractive(snapshotDir, env string) error {
	cfg, err := config.Load(env)
	if err != nil {
		cfg = nil // fall back to built-in defaults; config is a convenience, not a requirement
	}

	led := loadLedgerOrNew(snapshotDir)
	applyConfig(led, cfg)
	contracts := core.NewContractRegistry()

	in := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(menu)
		line, err := in.ReadString('\n')
		if err != nil {
			return nil
		}
		switch strings.TrimSpace(line) {
		case "1":
			if err := cmdRegisterPanel(in, led); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		case "2":
			if err := cmdGetBalance(in, led); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		case "3":
			if err := cmdCreateTransaction(in, led); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		case "4":
			if err := cmdExecuteContract(in, contracts); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		case "5":
			cmdShowChainInfo(led)
		case "6":
			if err := led.Save(snapshotDir); err != nil {
				fmt.Fprintln(os.Stderr, "error saving snapshot:", err)
			}
			return nil
		default:
			fmt.Println("unrecognized choice")
		}
	}
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label + ": ")
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptFloat(in *bufio.Reader, label string) (float64, error) {
	return strconv.ParseFloat(prompt(in, label), 64)
}

func promptInt(in *bufio.Reader, label string) (int, error) {
	return strconv.Atoi(prompt(in, label))
}

func cmdRegisterPanel(in *bufio.Reader, led *core.Ledger) error {
	panelID := prompt(in, "panel_id")
	dateStr := prompt(in, "production_date (yyyy-MM-dd)")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("%w: bad production_date", core.ErrInvalidTransaction)
	}
	efficiency, err := promptFloat(in, "nominal_efficiency_pct")
	if err != nil {
		return err
	}
	size, err := promptFloat(in, "size_m2")
	if err != nil {
		return err
	}
	manufacturer := prompt(in, "manufacturer")
	footprint, err := promptFloat(in, "manufacturing_footprint_kgco2")
	if err != nil {
		return err
	}
	factor, err := promptFloat(in, "carbon_reduction_factor_kgco2_per_kwh")
	if err != nil {
		return err
	}
	lifetime, err := promptInt(in, "lifetime_years")
	if err != nil {
		return err
	}
	owner := prompt(in, "owner")

	issuance, err := led.RegisterPanel(core.PanelRecord{
		PanelID:                     panelID,
		ProductionDate:              date,
		NominalEfficiencyPct:        efficiency,
		SizeM2:                      size,
		Manufacturer:                manufacturer,
		ManufacturingFootprintKgCO2: footprint,
		LifetimeYears:               lifetime,
		CarbonReductionFactor:       factor,
		Owner:                       owner,
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered %s; issued %s to %s\n", panelID, issuance.StringFixed(4), owner)
	return nil
}

func cmdGetBalance(in *bufio.Reader, led *core.Ledger) error {
	addr := prompt(in, "address")
	fmt.Println(led.Balance(addr).StringFixed(4))
	return nil
}

func cmdCreateTransaction(in *bufio.Reader, led *core.Ledger) error {
	sender := prompt(in, "sender")
	receiver := prompt(in, "receiver")
	amountStr := prompt(in, "amount")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("%w: bad amount", core.ErrInvalidTransaction)
	}
	panelID := prompt(in, "panel_id (optional)")
	signature := prompt(in, "signature (128 hex chars)")

	txid, err := led.SubmitTransaction(sender, receiver, amount, panelID, signature)
	if err != nil {
		return err
	}
	fmt.Println(txid)
	return nil
}

func cmdExecuteContract(in *bufio.Reader, contracts *core.ContractRegistry) error {
	name := prompt(in, "contract name")
	argsLine := prompt(in, "args (space separated)")
	var args []any
	if argsLine != "" {
		for _, tok := range strings.Fields(argsLine) {
			if f, err := strconv.ParseFloat(tok, 64); err == nil {
				args = append(args, f)
				continue
			}
			args = append(args, tok)
		}
	}
	result, err := contracts.Invoke(name, args)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func cmdShowChainInfo(led *core.Ledger) {
	var txCount int
	var totalReduction float64
	length := led.ChainLength()
	for i := 0; i < length; i++ {
		b, _ := led.BlockAt(uint64(i))
		txCount += len(b.Transactions)
		totalReduction += b.TotalCarbonReduction
	}
	fmt.Printf("height=%d txs=%d cumulative_reduction=%.4f\n", led.Height(), txCount, totalReduction)
}
