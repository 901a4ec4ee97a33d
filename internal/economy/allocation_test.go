package economy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

func standardSettings(tax int64) models.Settings {
	return models.Settings{
		AutoSplit:      models.DefaultSplit(models.ModeStandard),
		TaxRatePercent: tax,
	}
}

func TestAllocate(t *testing.T) {
	t.Parallel()

	t.Run("tax then proportional split", func(t *testing.T) {
		t.Parallel()
		a := Allocate(standardSettings(10), models.SubAccountOrder, 100)

		require.Equal(t, int64(10), a.Tax)
		require.Equal(t, int64(90), a.Net)
		require.Equal(t, int64(0), a.Residual)
		require.Equal(t, map[models.SubAccount]int64{
			models.SubAccountSpending:  45,
			models.SubAccountSavings:   27,
			models.SubAccountInvesting: 9,
			models.SubAccountCharity:   9,
		}, a.Distribution)
	})

	t.Run("rounding residual goes to the first funded sub-account", func(t *testing.T) {
		t.Parallel()
		a := Allocate(standardSettings(0), models.SubAccountOrder, 11)

		// floor shares are 5, 3, 1, 1 leaving 1 unassigned.
		require.Equal(t, int64(1), a.Residual)
		require.Equal(t, map[models.SubAccount]int64{
			models.SubAccountSpending:  6,
			models.SubAccountSavings:   3,
			models.SubAccountInvesting: 1,
			models.SubAccountCharity:   1,
		}, a.Distribution)

		var sum int64
		for _, v := range a.Distribution {
			sum += v
		}
		require.Equal(t, a.Net, sum)
	})

	t.Run("residual skips zero percent sub-accounts", func(t *testing.T) {
		t.Parallel()
		s := models.Settings{AutoSplit: map[models.SubAccount]int{
			models.SubAccountSpending:  0,
			models.SubAccountSavings:   33,
			models.SubAccountInvesting: 33,
			models.SubAccountCharity:   34,
		}}
		a := Allocate(s, models.SubAccountOrder, 10)

		// 3 + 3 + 3 = 9, residual 1 lands on savings.
		require.Equal(t, int64(0), a.Distribution[models.SubAccountSpending])
		require.Equal(t, int64(4), a.Distribution[models.SubAccountSavings])
		require.Equal(t, int64(3), a.Distribution[models.SubAccountInvesting])
		require.Equal(t, int64(3), a.Distribution[models.SubAccountCharity])
	})

	t.Run("tax is floored", func(t *testing.T) {
		t.Parallel()
		a := Allocate(standardSettings(15), models.SubAccountOrder, 99)
		require.Equal(t, int64(14), a.Tax)
		require.Equal(t, int64(85), a.Net)
	})

	t.Run("simple mode puts everything in spending", func(t *testing.T) {
		t.Parallel()
		s := models.Settings{AutoSplit: models.DefaultSplit(models.ModeSimple)}
		a := Allocate(s, []models.SubAccount{models.SubAccountSpending}, 77)
		require.Equal(t, map[models.SubAccount]int64{models.SubAccountSpending: 77}, a.Distribution)
	})
}

func TestResolveGross(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		action  string
		custom  int64
		want    int64
		wantErr bool
	}{
		{name: "custom amount wins", action: "task_complete", custom: 1000, want: 1000},
		{name: "rate table", action: "chore_complete", want: 100},
		{name: "bonus", action: "bonus", want: 500},
		{name: "unknown action", action: "nap", wantErr: true},
		{name: "nothing given", wantErr: true},
		{name: "negative custom", action: "bonus", custom: -5, wantErr: true},
		{name: "custom at the maximum", custom: MaxAmount, want: MaxAmount},
		{name: "custom over the maximum", action: "bonus", custom: MaxAmount + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveGross(tt.action, tt.custom)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestActionNames(t *testing.T) {
	t.Parallel()
	names := ActionNames()
	require.Len(t, names, len(ActionRates))
	require.Equal(t, "bonus", names[0])
}
