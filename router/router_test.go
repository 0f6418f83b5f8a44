package router

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defistate/amm-engine-go/engine"
	"github.com/defistate/amm-engine-go/ledger"
	"github.com/defistate/amm-engine-go/pair"
	"github.com/defistate/amm-engine-go/registry"
)

var (
	testDeployment = pair.Deployment{
		Factory:             common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
		TemplateFingerprint: common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f"),
	}
	tokenA  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenB  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenC  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	wrapped = common.HexToAddress("0xeeee000000000000000000000000000000000001")
	vault   = common.HexToAddress("0xeeee000000000000000000000000000000000002")

	routerAccount = common.HexToAddress("0xbbbb000000000000000000000000000000000001")
	alice         = common.HexToAddress("0xaaaa000000000000000000000000000000000001")
	bob           = common.HexToAddress("0xaaaa000000000000000000000000000000000002")
)

var (
	testInstant = time.Unix(1_700_000_000, 0)
	future      = uint64(testInstant.Unix()) + 1000
	past        = uint64(testInstant.Unix()) - 1
)

// acceptOK is a test verifier that accepts exactly the signature "ok".
func acceptOK(_ common.Address, _, _ engine.Account, _ *uint256.Int, _ uint64, signature []byte) error {
	if string(signature) != "ok" {
		return errors.New("bad signature")
	}
	return nil
}

type fixture struct {
	router  *Router
	host    *ledger.Host
	pairs   *registry.PairSystem
	wrapper *ledger.WrappedNative
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := engine.FixedClock{Instant: testInstant}
	tokens := ledger.NewInMemoryTokenLedger()
	pools := ledger.NewInMemoryPoolLedger(tokens, clock, acceptOK)
	native := ledger.NewNativeLedger()
	wrapper := ledger.NewWrappedNative(wrapped, vault, native, tokens)
	host := &ledger.Host{Tokens: tokens, Pools: pools, Native: native}
	pairs := registry.NewPairSystem(testDeployment)

	r, err := NewRouter(&Config{
		Pairs:    pairs,
		Pools:    pools,
		Tokens:   tokens,
		Wrapper:  wrapper,
		Account:  routerAccount,
		Tx:       host,
		Clock:    clock,
		Logger:   engine.NopLogger{},
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	return &fixture{router: r, host: host, pairs: pairs, wrapper: wrapper}
}

// fund credits an account and approves the router to spend it.
func (f *fixture) fund(asset engine.Asset, account engine.Account, amount uint64) {
	f.host.Tokens.Mint(asset, account, uint256.NewInt(amount))
	f.host.Tokens.Approve(asset, account, routerAccount, new(uint256.Int).SetAllOne())
}

// seedPool funds the caller and deposits a fresh pool at the given reserves.
func (f *fixture) seedPool(t *testing.T, assetA, assetB engine.Asset, amountA, amountB uint64) *uint256.Int {
	t.Helper()
	f.fund(assetA, alice, amountA)
	f.fund(assetB, alice, amountB)
	_, _, shares, err := f.router.AddLiquidity(alice, assetA, assetB,
		uint256.NewInt(amountA), uint256.NewInt(amountB), new(uint256.Int), new(uint256.Int), alice, future)
	require.NoError(t, err)
	return shares
}

func TestNewRouter(t *testing.T) {
	t.Run("rejects an incomplete config", func(t *testing.T) {
		_, err := NewRouter(&Config{})
		assert.Error(t, err)
	})

	t.Run("guards the router account against unsolicited native value", func(t *testing.T) {
		f := newFixture(t)
		f.wrapper.Native().Credit(alice, uint256.NewInt(100))

		err := f.wrapper.Native().Transfer(alice, routerAccount, uint256.NewInt(100))
		assert.ErrorIs(t, err, ledger.ErrUnsolicitedNative)
	})
}

func TestAddLiquidity(t *testing.T) {
	t.Run("first deposit creates the pool and accepts the desired amounts", func(t *testing.T) {
		f := newFixture(t)
		shares := f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)

		// sqrt(10^12) minus the locked minimum.
		assert.Equal(t, uint256.NewInt(999_000), shares)
		assert.Equal(t, 1, f.pairs.Len())

		entry, ok := f.pairs.Get(tokenA, tokenB)
		require.True(t, ok)
		reserve0, reserve1, err := f.host.Pools.Reserves(entry.Address)
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(1_000_000), reserve0)
		assert.Equal(t, uint256.NewInt(1_000_000), reserve1)
	})

	t.Run("trims the B side to the pool ratio", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, tokenB, 1_000_000, 2_000_000)
		f.fund(tokenA, bob, 100_000)
		f.fund(tokenB, bob, 250_000)

		amountA, amountB, _, err := f.router.AddLiquidity(bob, tokenA, tokenB,
			uint256.NewInt(100_000), uint256.NewInt(250_000),
			uint256.NewInt(100_000), uint256.NewInt(190_000), bob, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(100_000), amountA)
		assert.Equal(t, uint256.NewInt(200_000), amountB, "B is trimmed to the 1:2 ratio")
		assert.Equal(t, uint256.NewInt(50_000), f.host.Tokens.BalanceOf(tokenB, bob), "untaken B stays with the caller")
	})

	t.Run("trims the A side when B binds", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, tokenB, 1_000_000, 2_000_000)
		f.fund(tokenA, bob, 100_000)
		f.fund(tokenB, bob, 150_000)

		amountA, amountB, _, err := f.router.AddLiquidity(bob, tokenA, tokenB,
			uint256.NewInt(100_000), uint256.NewInt(150_000),
			uint256.NewInt(70_000), uint256.NewInt(150_000), bob, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(75_000), amountA)
		assert.Equal(t, uint256.NewInt(150_000), amountB)
	})

	t.Run("fails when the trimmed amount breaks the minimum", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, tokenB, 1_000_000, 2_000_000)
		f.fund(tokenA, bob, 100_000)
		f.fund(tokenB, bob, 150_000)

		_, _, _, err := f.router.AddLiquidity(bob, tokenA, tokenB,
			uint256.NewInt(100_000), uint256.NewInt(150_000),
			uint256.NewInt(80_000), uint256.NewInt(150_000), bob, future)
		assert.ErrorIs(t, err, ErrInsufficientAAmount)
		assert.Equal(t, uint256.NewInt(100_000), f.host.Tokens.BalanceOf(tokenA, bob), "failed deposit moves nothing")
	})

	t.Run("expired deadline fails before any state change", func(t *testing.T) {
		f := newFixture(t)
		f.fund(tokenA, alice, 1_000_000)
		f.fund(tokenB, alice, 1_000_000)

		_, _, _, err := f.router.AddLiquidity(alice, tokenA, tokenB,
			uint256.NewInt(1_000_000), uint256.NewInt(1_000_000),
			new(uint256.Int), new(uint256.Int), alice, past)
		assert.ErrorIs(t, err, ErrExpired)
		assert.Equal(t, 0, f.pairs.Len(), "no pool was created")
		assert.Equal(t, uint256.NewInt(1_000_000), f.host.Tokens.BalanceOf(tokenA, alice))
	})
}

func TestSwapExactTokensForTokens(t *testing.T) {
	t.Run("single hop pays the priced output", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)
		f.fund(tokenA, bob, 1000)

		amounts, err := f.router.SwapExactTokensForTokens(bob,
			uint256.NewInt(1000), uint256.NewInt(990), []engine.Asset{tokenA, tokenB}, bob, future)
		require.NoError(t, err)
		require.Len(t, amounts, 2)

		assert.Equal(t, uint256.NewInt(996), amounts[1])
		assert.Equal(t, uint256.NewInt(996), f.host.Tokens.BalanceOf(tokenB, bob))
		assert.True(t, f.host.Tokens.BalanceOf(tokenA, bob).IsZero())
	})

	t.Run("two hops settle through the middle pool", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)
		f.seedPool(t, tokenB, tokenC, 1_000_000, 1_000_000)
		f.fund(tokenA, bob, 1000)

		amounts, err := f.router.SwapExactTokensForTokens(bob,
			uint256.NewInt(1000), uint256.NewInt(990), []engine.Asset{tokenA, tokenB, tokenC}, bob, future)
		require.NoError(t, err)
		require.Len(t, amounts, 3)

		assert.Equal(t, uint256.NewInt(996), amounts[1])
		assert.Equal(t, uint256.NewInt(992), amounts[2])
		assert.Equal(t, uint256.NewInt(992), f.host.Tokens.BalanceOf(tokenC, bob))
		assert.True(t, f.host.Tokens.BalanceOf(tokenB, bob).IsZero(), "the intermediate amount never touches the caller")
	})

	t.Run("output below the minimum fails with no partial effect", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)
		f.fund(tokenA, bob, 1000)

		_, err := f.router.SwapExactTokensForTokens(bob,
			uint256.NewInt(1000), uint256.NewInt(997), []engine.Asset{tokenA, tokenB}, bob, future)
		assert.ErrorIs(t, err, ErrInsufficientOutputAmount)
		assert.Equal(t, uint256.NewInt(1000), f.host.Tokens.BalanceOf(tokenA, bob))
	})

	t.Run("expired deadline", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)
		f.fund(tokenA, bob, 1000)

		_, err := f.router.SwapExactTokensForTokens(bob,
			uint256.NewInt(1000), new(uint256.Int), []engine.Asset{tokenA, tokenB}, bob, past)
		assert.ErrorIs(t, err, ErrExpired)
	})
}

func TestSwapTokensForExactTokens(t *testing.T) {
	t.Run("charges the exact required input", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)
		f.fund(tokenA, bob, 5000)

		amounts, err := f.router.SwapTokensForExactTokens(bob,
			uint256.NewInt(996), uint256.NewInt(1000), []engine.Asset{tokenA, tokenB}, bob, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(1000), amounts[0])
		assert.Equal(t, uint256.NewInt(996), f.host.Tokens.BalanceOf(tokenB, bob))
		assert.Equal(t, uint256.NewInt(4000), f.host.Tokens.BalanceOf(tokenA, bob))
	})

	t.Run("required input above the maximum fails with no partial effect", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)
		f.fund(tokenA, bob, 5000)

		_, err := f.router.SwapTokensForExactTokens(bob,
			uint256.NewInt(996), uint256.NewInt(999), []engine.Asset{tokenA, tokenB}, bob, future)
		assert.ErrorIs(t, err, ErrExcessiveInputAmount)
		assert.Equal(t, uint256.NewInt(5000), f.host.Tokens.BalanceOf(tokenA, bob))
	})
}

func TestRemoveLiquidity(t *testing.T) {
	t.Run("redeems shares for both assets", func(t *testing.T) {
		f := newFixture(t)
		shares := f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)

		amountA, amountB, err := f.router.RemoveLiquidity(alice, tokenA, tokenB,
			shares, uint256.NewInt(999_000), uint256.NewInt(999_000), alice, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(999_000), amountA)
		assert.Equal(t, uint256.NewInt(999_000), amountB)
		assert.Equal(t, uint256.NewInt(999_000), f.host.Tokens.BalanceOf(tokenA, alice))

		entry, _ := f.pairs.Get(tokenA, tokenB)
		assert.True(t, f.host.Pools.SharesOf(entry.Address, alice).IsZero())
	})

	t.Run("payout below the minimum fails and restores the shares", func(t *testing.T) {
		f := newFixture(t)
		shares := f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)

		_, _, err := f.router.RemoveLiquidity(alice, tokenA, tokenB,
			shares, uint256.NewInt(999_001), new(uint256.Int), alice, future)
		assert.ErrorIs(t, err, ErrInsufficientAAmount)

		entry, _ := f.pairs.Get(tokenA, tokenB)
		assert.Equal(t, shares, f.host.Pools.SharesOf(entry.Address, alice), "failed withdrawal keeps the shares")
	})
}

func TestRemoveLiquidityWithAuthorization(t *testing.T) {
	t.Run("valid signature redeems", func(t *testing.T) {
		f := newFixture(t)
		shares := f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)

		amountA, _, err := f.router.RemoveLiquidityWithAuthorization(alice, tokenA, tokenB,
			shares, new(uint256.Int), new(uint256.Int), alice, future, false, []byte("ok"))
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(999_000), amountA)
	})

	t.Run("rejected signature leaves everything in place", func(t *testing.T) {
		f := newFixture(t)
		shares := f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)

		_, _, err := f.router.RemoveLiquidityWithAuthorization(alice, tokenA, tokenB,
			shares, new(uint256.Int), new(uint256.Int), alice, future, false, []byte("forged"))
		require.Error(t, err)

		entry, _ := f.pairs.Get(tokenA, tokenB)
		assert.Equal(t, shares, f.host.Pools.SharesOf(entry.Address, alice))
	})

	t.Run("approveMax leaves allowance for a second withdrawal", func(t *testing.T) {
		f := newFixture(t)
		shares := f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)
		half := new(uint256.Int).Div(shares, uint256.NewInt(2))

		_, _, err := f.router.RemoveLiquidityWithAuthorization(alice, tokenA, tokenB,
			half, new(uint256.Int), new(uint256.Int), alice, future, true, []byte("ok"))
		require.NoError(t, err)

		// The remaining shares move on the surviving allowance alone.
		entry, _ := f.pairs.Get(tokenA, tokenB)
		remaining := f.host.Pools.SharesOf(entry.Address, alice)
		require.NoError(t, f.host.Pools.TransferSharesFrom(entry.Address, routerAccount, alice, bob, remaining))
	})
}

func TestNativeLiquidity(t *testing.T) {
	t.Run("deposit wraps the native leg and refunds dust", func(t *testing.T) {
		f := newFixture(t)
		f.seedPool(t, tokenA, wrapped, 1_000_000, 1_000_000)

		f.fund(tokenA, bob, 100_000)
		f.wrapper.Native().Credit(bob, uint256.NewInt(150_000))

		amountToken, amountNative, _, err := f.router.AddLiquidityNative(bob, tokenA,
			uint256.NewInt(100_000), uint256.NewInt(100_000),
			uint256.NewInt(150_000), uint256.NewInt(90_000), bob, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(100_000), amountToken)
		assert.Equal(t, uint256.NewInt(100_000), amountNative)
		assert.Equal(t, uint256.NewInt(50_000), f.wrapper.Native().BalanceOf(bob), "unused native value is refunded")
	})

	t.Run("withdrawal unwraps the native leg", func(t *testing.T) {
		f := newFixture(t)
		f.fund(tokenA, alice, 1_000_000)
		f.wrapper.Native().Credit(alice, uint256.NewInt(1_000_000))

		_, _, shares, err := f.router.AddLiquidityNative(alice, tokenA,
			uint256.NewInt(1_000_000), new(uint256.Int),
			uint256.NewInt(1_000_000), new(uint256.Int), alice, future)
		require.NoError(t, err)

		amountToken, amountNative, err := f.router.RemoveLiquidityNative(alice, tokenA,
			shares, new(uint256.Int), new(uint256.Int), bob, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(999_000), amountToken)
		assert.Equal(t, uint256.NewInt(999_000), amountNative)
		assert.Equal(t, uint256.NewInt(999_000), f.host.Tokens.BalanceOf(tokenA, bob))
		assert.Equal(t, uint256.NewInt(999_000), f.wrapper.Native().BalanceOf(bob), "the native leg arrives unwrapped")
		assert.True(t, f.host.Tokens.BalanceOf(wrapped, bob).IsZero())
	})

	t.Run("withdrawal by signature", func(t *testing.T) {
		f := newFixture(t)
		f.fund(tokenA, alice, 1_000_000)
		f.wrapper.Native().Credit(alice, uint256.NewInt(1_000_000))

		_, _, shares, err := f.router.AddLiquidityNative(alice, tokenA,
			uint256.NewInt(1_000_000), new(uint256.Int),
			uint256.NewInt(1_000_000), new(uint256.Int), alice, future)
		require.NoError(t, err)

		_, amountNative, err := f.router.RemoveLiquidityNativeWithAuthorization(alice, tokenA,
			shares, new(uint256.Int), new(uint256.Int), bob, future, false, []byte("ok"))
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(999_000), amountNative)
	})
}

func TestNativeSwaps(t *testing.T) {
	seedNativePool := func(t *testing.T, f *fixture) {
		t.Helper()
		f.seedPool(t, tokenA, wrapped, 1_000_000, 1_000_000)
	}

	t.Run("exact native in", func(t *testing.T) {
		f := newFixture(t)
		seedNativePool(t, f)
		f.wrapper.Native().Credit(bob, uint256.NewInt(1000))

		amounts, err := f.router.SwapExactNativeForTokens(bob,
			uint256.NewInt(1000), uint256.NewInt(990), []engine.Asset{wrapped, tokenA}, bob, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(996), amounts[1])
		assert.Equal(t, uint256.NewInt(996), f.host.Tokens.BalanceOf(tokenA, bob))
		assert.True(t, f.wrapper.Native().BalanceOf(bob).IsZero())
	})

	t.Run("native for exact tokens refunds the excess", func(t *testing.T) {
		f := newFixture(t)
		seedNativePool(t, f)
		f.wrapper.Native().Credit(bob, uint256.NewInt(2000))

		amounts, err := f.router.SwapNativeForExactTokens(bob,
			uint256.NewInt(996), uint256.NewInt(2000), []engine.Asset{wrapped, tokenA}, bob, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(1000), amounts[0])
		assert.Equal(t, uint256.NewInt(996), f.host.Tokens.BalanceOf(tokenA, bob))
		assert.Equal(t, uint256.NewInt(1000), f.wrapper.Native().BalanceOf(bob), "excess attached value is refunded")
	})

	t.Run("exact tokens for native", func(t *testing.T) {
		f := newFixture(t)
		seedNativePool(t, f)
		f.fund(tokenA, bob, 1000)

		amounts, err := f.router.SwapExactTokensForNative(bob,
			uint256.NewInt(1000), uint256.NewInt(990), []engine.Asset{tokenA, wrapped}, bob, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(996), amounts[1])
		assert.Equal(t, uint256.NewInt(996), f.wrapper.Native().BalanceOf(bob))
		assert.True(t, f.host.Tokens.BalanceOf(wrapped, bob).IsZero(), "the wrapped form never reaches the caller")
	})

	t.Run("tokens for exact native", func(t *testing.T) {
		f := newFixture(t)
		seedNativePool(t, f)
		f.fund(tokenA, bob, 5000)

		amounts, err := f.router.SwapTokensForExactNative(bob,
			uint256.NewInt(996), uint256.NewInt(1000), []engine.Asset{tokenA, wrapped}, bob, future)
		require.NoError(t, err)

		assert.Equal(t, uint256.NewInt(1000), amounts[0])
		assert.Equal(t, uint256.NewInt(996), f.wrapper.Native().BalanceOf(bob))
	})

	t.Run("native input path must start with the wrapped asset", func(t *testing.T) {
		f := newFixture(t)
		seedNativePool(t, f)
		f.wrapper.Native().Credit(bob, uint256.NewInt(1000))

		_, err := f.router.SwapExactNativeForTokens(bob,
			uint256.NewInt(1000), new(uint256.Int), []engine.Asset{tokenA, wrapped}, bob, future)
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("native output path must end with the wrapped asset", func(t *testing.T) {
		f := newFixture(t)
		seedNativePool(t, f)
		f.fund(tokenA, bob, 1000)

		_, err := f.router.SwapExactTokensForNative(bob,
			uint256.NewInt(1000), new(uint256.Int), []engine.Asset{wrapped, tokenA}, bob, future)
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("expired deadline is checked before the path shape", func(t *testing.T) {
		f := newFixture(t)
		seedNativePool(t, f)
		f.wrapper.Native().Credit(bob, uint256.NewInt(1000))

		// The path is also invalid for a native input; the deadline still
		// decides first.
		_, err := f.router.SwapExactNativeForTokens(bob,
			uint256.NewInt(1000), new(uint256.Int), []engine.Asset{tokenA, wrapped}, bob, past)
		assert.ErrorIs(t, err, ErrExpired)

		_, err = f.router.SwapTokensForExactNative(bob,
			uint256.NewInt(1000), uint256.NewInt(2000), []engine.Asset{wrapped, tokenA}, bob, past)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("expired deadline is checked before the wrapper", func(t *testing.T) {
		f := newFixture(t)
		r, err := NewRouter(&Config{
			Pairs:    f.pairs,
			Pools:    f.host.Pools,
			Tokens:   f.host.Tokens,
			Account:  routerAccount,
			Clock:    engine.FixedClock{Instant: testInstant},
			Logger:   engine.NopLogger{},
			Registry: prometheus.NewRegistry(),
		})
		require.NoError(t, err)

		_, _, _, err = r.AddLiquidityNative(bob, tokenA,
			uint256.NewInt(1000), new(uint256.Int),
			uint256.NewInt(1000), new(uint256.Int), bob, past)
		assert.ErrorIs(t, err, ErrExpired)

		_, _, err = r.RemoveLiquidityNative(bob, tokenA,
			uint256.NewInt(1000), new(uint256.Int), new(uint256.Int), bob, past)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("native entry points fail without a wrapper", func(t *testing.T) {
		f := newFixture(t)
		r, err := NewRouter(&Config{
			Pairs:    f.pairs,
			Pools:    f.host.Pools,
			Tokens:   f.host.Tokens,
			Account:  routerAccount,
			Clock:    engine.FixedClock{Instant: testInstant},
			Logger:   engine.NopLogger{},
			Registry: prometheus.NewRegistry(),
		})
		require.NoError(t, err)

		_, err = r.SwapExactNativeForTokens(bob,
			uint256.NewInt(1000), new(uint256.Int), []engine.Asset{wrapped, tokenA}, bob, future)
		assert.ErrorIs(t, err, ErrNativeUnsupported)
	})
}

func TestRouterQueries(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, tokenA, tokenB, 1_000_000, 1_000_000)
	f.seedPool(t, tokenB, tokenC, 1_000_000, 1_000_000)

	t.Run("amounts out", func(t *testing.T) {
		amounts, err := f.router.GetAmountsOut(uint256.NewInt(1000), []engine.Asset{tokenA, tokenB, tokenC})
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(992), amounts[2])
	})

	t.Run("amounts in agrees with execution pricing", func(t *testing.T) {
		amounts, err := f.router.GetAmountsIn(uint256.NewInt(996), []engine.Asset{tokenA, tokenB})
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(1000), amounts[0])
	})

	t.Run("pure quote", func(t *testing.T) {
		out, err := f.router.Quote(uint256.NewInt(100), uint256.NewInt(1000), uint256.NewInt(3000))
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(300), out)
	})

	t.Run("unknown pool surfaces the hop", func(t *testing.T) {
		_, err := f.router.GetAmountsOut(uint256.NewInt(1000), []engine.Asset{tokenA, tokenC})
		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.ErrUnknownPool)
	})
}
