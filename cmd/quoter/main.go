// Command quoter prices swap paths against a pool snapshot file. It loads a
// JSON array of pools, resolves each hop through the deterministic pair
// identity, and walks the path in either direction without touching any
// live state.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/defistate/amm-engine-go/calculator"
	"github.com/defistate/amm-engine-go/engine"
	"github.com/defistate/amm-engine-go/pair"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	root := &cobra.Command{
		Use:           "quoter",
		Short:         "Price constant-product swap paths against a pool snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("pools", "pools.json", "path to the pool snapshot file")
	root.PersistentFlags().String("factory", "", "registry seed address for pool address derivation")
	root.PersistentFlags().String("fingerprint", "", "pool template fingerprint for address derivation")

	viper.SetEnvPrefix("quoter")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(root.PersistentFlags()); err != nil {
		logger.Error("Failed to bind flags", "error", err)
		os.Exit(1)
	}

	root.AddCommand(amountsOutCmd(logger), amountsInCmd(logger), quoteCmd(), addressCmd(), diffCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func amountsOutCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "amounts-out <amountIn> <asset> <asset> [asset...]",
		Short: "Walk a path forward: the output of swapping a fixed input",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, path, amount, err := loadQuoteInputs(logger, args)
			if err != nil {
				return err
			}
			amounts, err := calculator.GetAmountsOut(snapshot, amount, path)
			if err != nil {
				return err
			}
			return printAmounts(cmd, path, amounts)
		},
	}
}

func amountsInCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "amounts-in <amountOut> <asset> <asset> [asset...]",
		Short: "Walk a path backward: the input required for a fixed output",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, path, amount, err := loadQuoteInputs(logger, args)
			if err != nil {
				return err
			}
			amounts, err := calculator.GetAmountsIn(snapshot, amount, path)
			if err != nil {
				return err
			}
			return printAmounts(cmd, path, amounts)
		},
	}
}

func quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <amountA> <reserveA> <reserveB>",
		Short: "Fee-free ratio quote, as used when balancing a deposit",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amountA, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			reserveA, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			reserveB, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			out, err := calculator.Quote(amountA, reserveA, reserveB)
			if err != nil {
				return err
			}
			cmd.Println(out.Dec())
			return nil
		},
	}
}

func addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address <asset> <asset>",
		Short: "Derive the deterministic pool address for a pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deployment, err := loadDeployment()
			if err != nil {
				return err
			}
			tokenA, err := parseAsset(args[0])
			if err != nil {
				return err
			}
			tokenB, err := parseAsset(args[1])
			if err != nil {
				return err
			}
			address, err := deployment.AddressFor(tokenA, tokenB)
			if err != nil {
				return err
			}
			cmd.Println(address.Hex())
			return nil
		},
	}
}

func diffCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old-snapshot> <new-snapshot>",
		Short: "Summarize pool and reserve changes between two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPools, err := loadSnapshot(logger, args[0])
			if err != nil {
				return err
			}
			newPools, err := loadSnapshot(logger, args[1])
			if err != nil {
				return err
			}

			diff := pair.Diff(oldPools, newPools)
			if diff.IsEmpty() {
				cmd.Println("no changes")
				return nil
			}
			out, err := json.MarshalIndent(diff, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}
}

// snapshotSource serves hop reserves from a loaded pool snapshot, keyed by
// the canonical pair identity.
type snapshotSource struct {
	pools map[pair.Key]pair.Pool
}

func newSnapshotSource(pools []pair.Pool) (*snapshotSource, error) {
	byKey := make(map[pair.Key]pair.Pool, len(pools))
	for _, p := range pools {
		key, err := pair.KeyFor(p.Token0, p.Token1)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", p.Address, err)
		}
		byKey[key] = p
	}
	return &snapshotSource{pools: byKey}, nil
}

func (s *snapshotSource) ReservesToward(assetIn, assetOut engine.Asset) (*uint256.Int, *uint256.Int, error) {
	key, err := pair.KeyFor(assetIn, assetOut)
	if err != nil {
		return nil, nil, err
	}
	p, ok := s.pools[key]
	if !ok {
		return nil, nil, fmt.Errorf("no pool in snapshot for %s/%s", assetIn, assetOut)
	}
	return p.ReservesToward(assetIn, assetOut)
}

func loadQuoteInputs(logger *slog.Logger, args []string) (*snapshotSource, []engine.Asset, *uint256.Int, error) {
	amount, err := parseAmount(args[0])
	if err != nil {
		return nil, nil, nil, err
	}

	path := make([]engine.Asset, 0, len(args)-1)
	for _, arg := range args[1:] {
		asset, err := parseAsset(arg)
		if err != nil {
			return nil, nil, nil, err
		}
		path = append(path, asset)
	}

	pools, err := loadSnapshot(logger, viper.GetString("pools"))
	if err != nil {
		return nil, nil, nil, err
	}
	snapshot, err := newSnapshotSource(pools)
	if err != nil {
		return nil, nil, nil, err
	}
	return snapshot, path, amount, nil
}

func loadSnapshot(logger *slog.Logger, file string) ([]pair.Pool, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read pool snapshot: %w", err)
	}
	var pools []pair.Pool
	if err := json.Unmarshal(data, &pools); err != nil {
		return nil, fmt.Errorf("decode pool snapshot %s: %w", file, err)
	}
	logger.Info("Loaded pool snapshot", "file", file, "pools", len(pools))
	return pools, nil
}

func loadDeployment() (pair.Deployment, error) {
	factory := viper.GetString("factory")
	fingerprint := viper.GetString("fingerprint")
	if !common.IsHexAddress(factory) {
		return pair.Deployment{}, fmt.Errorf("invalid factory address %q", factory)
	}
	if len(strings.TrimPrefix(fingerprint, "0x")) != 2*common.HashLength {
		return pair.Deployment{}, fmt.Errorf("invalid template fingerprint %q", fingerprint)
	}
	return pair.Deployment{
		Factory:             common.HexToAddress(factory),
		TemplateFingerprint: common.HexToHash(fingerprint),
	}, nil
}

func parseAsset(s string) (engine.Asset, error) {
	if !common.IsHexAddress(s) {
		return engine.Asset{}, fmt.Errorf("invalid asset address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}

func printAmounts(cmd *cobra.Command, path []engine.Asset, amounts []*uint256.Int) error {
	for i, asset := range path {
		cmd.Printf("%s\t%s\n", asset.Hex(), amounts[i].Dec())
	}
	return nil
}
