package account

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-intel/internal/cache"
	"market-intel/internal/models"
	"market-intel/internal/provider"
	"market-intel/internal/provider/stub"
)

const (
	testAddress    = "inj14au322k9munk4x5wrgdjurzz7g6z7t6rjytgna"
	testSubaccount = "0xaf79152ac5df276a9a8e1a1b2e0c42f2342f2f43000000000000000000000000"
)

func newTestService(p *stub.Provider) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(p, cache.New(0), logger)
}

func TestSubaccountID(t *testing.T) {
	id, err := SubaccountID(testAddress)
	require.NoError(t, err)
	assert.Equal(t, testSubaccount, id)
}

func TestSubaccountIDKnownKey(t *testing.T) {
	// Address for the account key 0x0102...14.
	id, err := SubaccountID("inj1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc54tm65y")
	require.NoError(t, err)
	assert.Equal(t, "0x0102030405060708090a0b0c0d0e0f1011121314000000000000000000000000", id)
}

func TestSubaccountIDRejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"not-an-address",
		"cosmos14au322k9munk4x5wrgdjurzz7g6z7t6rjytgna",
		// Valid format, corrupted checksum.
		"inj14au322k9munk4x5wrgdjurzz7g6z7t6rjytgnb",
		// Mixed case is invalid bech32.
		"Inj14au322k9munk4x5wrgdjurzz7g6z7t6rjytgna",
	}
	for _, addr := range cases {
		_, err := SubaccountID(addr)
		assert.ErrorIs(t, err, models.ErrInvalidAddress, "address %q", addr)
	}
}

func TestPortfolio(t *testing.T) {
	p := stub.New()
	p.Portfolios[testAddress] = &provider.RawPortfolio{
		BankBalances: []provider.RawBankBalance{
			{Denom: "inj", Amount: "1000000000000000000"},
		},
		Subaccounts: []provider.RawSubaccountBalance{
			{
				SubaccountID:     testSubaccount,
				Denom:            "inj",
				TotalBalance:     "5",
				AvailableBalance: "3",
			},
		},
		PositionsCount: 2,
	}
	svc := newTestService(p)

	portfolio, err := svc.Portfolio(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, testAddress, portfolio.Address)
	require.Len(t, portfolio.BankBalances, 1)
	assert.Equal(t, "inj", portfolio.BankBalances[0].Denom)
	require.Len(t, portfolio.Subaccounts, 1)
	assert.Equal(t, "3", portfolio.Subaccounts[0].Deposit.AvailableBalance)
	assert.Equal(t, 2, portfolio.PositionsCount)
}

func TestPortfolioInvalidAddress(t *testing.T) {
	svc := newTestService(stub.New())

	_, err := svc.Portfolio(context.Background(), "bogus")
	assert.ErrorIs(t, err, models.ErrInvalidAddress)
}

func TestPortfolioServedFromCache(t *testing.T) {
	p := stub.New()
	svc := newTestService(p)
	ctx := context.Background()

	_, err := svc.Portfolio(ctx, testAddress)
	require.NoError(t, err)
	_, err = svc.Portfolio(ctx, testAddress)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Calls["portfolio"])
}

func TestPositionsUsesDerivedSubaccount(t *testing.T) {
	p := stub.New()
	p.Positions[testSubaccount] = []provider.RawPosition{
		{
			MarketID:     "0xperp1",
			Ticker:       "INJ/USDT PERP",
			Direction:    "long",
			Quantity:     "2",
			EntryPrice:   "20",
			MarkPrice:    "24",
			SubaccountID: testSubaccount,
		},
	}
	svc := newTestService(p)

	page, err := svc.Positions(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, testAddress, page.Address)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Positions, 1)
	assert.Equal(t, "long", page.Positions[0].Direction)
}

func TestConvertBitsRejectsDirtyPadding(t *testing.T) {
	// 8 bits regrouped into one 5-bit value leaves 3 non-zero bits behind.
	_, ok := convertBits([]byte{0x1f, 0x1f}, 5, 8, false)
	assert.False(t, ok)
}
