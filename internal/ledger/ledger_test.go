package ledger

import (
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func addScenario(t *testing.T, l *Ledger) {
	t.Helper()
	i, err := l.AddExpense("Coffee", d("3.50"), "Food")
	require.NoError(t, err)
	require.Equal(t, 0, i)
	i, err = l.AddExpense("Bus", d("2.00"), "Transport")
	require.NoError(t, err)
	require.Equal(t, 1, i)
}

func TestNewLedgerIsEmpty(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Total().IsZero())
	assert.Empty(t, l.CategoryTotals())
	_, ok := l.Goal()
	assert.False(t, ok)
	assert.Equal(t, core.NoGoal, l.GoalProgress().Status)
}

func TestTotalsScenario(t *testing.T) {
	l := New()
	addScenario(t, l)

	assert.True(t, l.Total().Equal(d("5.50")))
	cats := l.CategoryTotals()
	require.Len(t, cats, 2)
	assert.Equal(t, "Food", cats[0].Name)
	assert.True(t, cats[0].Amount.Equal(d("3.50")))
	assert.Equal(t, "Transport", cats[1].Name)
	assert.True(t, cats[1].Amount.Equal(d("2.00")))
}

func TestOverGoalScenario(t *testing.T) {
	l := New()
	require.NoError(t, l.SetGoal(d("5.00")))
	addScenario(t, l)

	p := l.GoalProgress()
	assert.Equal(t, core.OverGoal, p.Status)
	assert.True(t, p.Overage.Equal(d("0.50")), "overage=%s", p.Overage)
	assert.True(t, p.Percentage.Equal(d("110")), "percentage=%s", p.Percentage)
}

func TestUnderGoalPercentage(t *testing.T) {
	l := New()
	require.NoError(t, l.SetGoal(d("10")))
	_, err := l.AddExpense("Lunch", d("2.50"), "Food")
	require.NoError(t, err)

	p := l.GoalProgress()
	assert.Equal(t, core.UnderGoal, p.Status)
	assert.True(t, p.Percentage.Equal(d("25")))
	assert.True(t, p.Overage.IsZero())

	// Exactly at the goal is still under.
	_, err = l.AddExpense("Dinner", d("7.50"), "Food")
	require.NoError(t, err)
	p = l.GoalProgress()
	assert.Equal(t, core.UnderGoal, p.Status)
	assert.True(t, p.Percentage.Equal(d("100")))
}

func TestSetGoalRejected(t *testing.T) {
	l := New()
	err := l.SetGoal(d("-1"))
	assert.ErrorIs(t, err, core.ErrInvalidGoal)
	_, ok := l.Goal()
	assert.False(t, ok)

	require.NoError(t, l.SetGoal(d("20")))
	assert.ErrorIs(t, l.SetGoal(decimal.Zero), core.ErrInvalidGoal)
	g, ok := l.Goal()
	assert.True(t, ok)
	assert.True(t, g.Equal(d("20")))
}

func TestRemoveTwiceReportsIndexNotFound(t *testing.T) {
	l := New()
	_, err := l.AddExpense("Tea", d("1"), "Food")
	require.NoError(t, err)

	require.NoError(t, l.RemoveExpense(0))
	err = l.RemoveExpense(0)
	assert.ErrorIs(t, err, core.ErrIndexNotFound)
	assert.Equal(t, 0, l.Len())
}

func TestRemoveShiftsAndAppendsAfterShortenedLength(t *testing.T) {
	l := New()
	for _, name := range []string{"a", "b", "c"} {
		_, err := l.AddExpense(name, d("1"), "x")
		require.NoError(t, err)
	}
	require.NoError(t, l.RemoveExpense(1))

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Description)
	assert.Equal(t, "c", entries[1].Description)

	i, err := l.AddExpense("d", d("1"), "x")
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	assert.True(t, l.Total().Equal(d("3")))
}

func TestEditAmount(t *testing.T) {
	l := New()
	addScenario(t, l)

	require.NoError(t, l.EditAmount(1, d("4")))
	e := l.Entries()[1]
	assert.Equal(t, "Bus", e.Description)
	assert.Equal(t, "Transport", e.Category)
	assert.True(t, e.Amount.Equal(d("4")))
	assert.True(t, l.Total().Equal(d("7.50")))
}

func TestEditAmountRejectionsLeaveStateUnchanged(t *testing.T) {
	l := New()
	addScenario(t, l)
	before := l.Total()

	assert.ErrorIs(t, l.EditAmount(0, d("-1")), core.ErrInvalidAmount)
	assert.ErrorIs(t, l.EditAmount(2, d("1")), core.ErrIndexNotFound)
	assert.ErrorIs(t, l.EditAmount(-1, d("1")), core.ErrIndexNotFound)
	assert.True(t, l.Total().Equal(before))
}

func TestAddRejectsNegativeAmount(t *testing.T) {
	l := New()
	_, err := l.AddExpense("Refund", d("-5"), "Misc")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Equal(t, 0, l.Len())

	_, err = l.AddExpense("Free sample", decimal.Zero, "Misc")
	assert.NoError(t, err)
}

func TestCategoryTotalsPartitionTotal(t *testing.T) {
	l := New()
	amounts := []string{"1.10", "2.25", "0.05", "10", "3.333"}
	cats := []string{"A", "B", "A", "C", "B"}
	for i := range amounts {
		_, err := l.AddExpense("e", d(amounts[i]), cats[i])
		require.NoError(t, err)
	}
	require.NoError(t, l.RemoveExpense(2))
	require.NoError(t, l.EditAmount(0, d("4.4")))

	sum := decimal.Zero
	for _, c := range l.CategoryTotals() {
		sum = sum.Add(c.Amount)
	}
	assert.True(t, sum.Equal(l.Total()), "sum=%s total=%s", sum, l.Total())
}

func TestRandomMutationsKeepTotalsConsistent(t *testing.T) {
	l := New()
	categories := []string{"Food", "Transport", "Rent", "Fun", ""}

	for i := 0; i < 200; i++ {
		switch n := l.Len(); {
		case n > 0 && i%5 == 0:
			require.NoError(t, l.RemoveExpense(gofakeit.IntRange(0, n-1)))
		case n > 0 && i%7 == 0:
			amount := decimal.NewFromFloat(gofakeit.Price(0, 100)).Round(2)
			require.NoError(t, l.EditAmount(gofakeit.IntRange(0, n-1), amount))
		default:
			amount := decimal.NewFromFloat(gofakeit.Price(0, 500)).Round(2)
			_, err := l.AddExpense(gofakeit.Company(), amount, gofakeit.RandomString(categories))
			require.NoError(t, err)
		}
	}

	snap := l.Snapshot()
	sum := decimal.Zero
	for _, e := range snap.Entries {
		sum = sum.Add(e.Amount)
	}
	assert.True(t, sum.Equal(snap.Total), "entries=%s total=%s", sum, snap.Total)

	catSum := decimal.Zero
	for _, c := range snap.Categories {
		catSum = catSum.Add(c.Amount)
	}
	assert.True(t, catSum.Equal(snap.Total), "categories=%s total=%s", catSum, snap.Total)
}

func TestIDBasedOperations(t *testing.T) {
	l := New()
	addScenario(t, l)
	entries := l.Entries()
	require.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)

	i, ok := l.IndexOf(entries[1].ID)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	require.NoError(t, l.RemoveByID(entries[0].ID))
	i, ok = l.IndexOf(entries[1].ID)
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	require.NoError(t, l.EditAmountByID(entries[1].ID, d("9")))
	assert.True(t, l.Total().Equal(d("9")))

	assert.ErrorIs(t, l.RemoveByID(entries[0].ID), core.ErrIndexNotFound)
	assert.ErrorIs(t, l.EditAmountByID("missing", d("1")), core.ErrIndexNotFound)
	assert.ErrorIs(t, l.EditAmountByID(entries[1].ID, d("-1")), core.ErrInvalidAmount)
}

func TestSnapshotIsConsistent(t *testing.T) {
	l := New()
	require.NoError(t, l.SetGoal(d("5")))
	addScenario(t, l)

	s := l.Snapshot()
	require.Len(t, s.Entries, 2)
	assert.True(t, s.Total.Equal(d("5.50")))
	assert.Len(t, s.Categories, 2)
	assert.Equal(t, core.OverGoal, s.Progress.Status)

	// Mutating the snapshot does not leak into the ledger.
	s.Entries[0].Amount = d("100")
	assert.True(t, l.Total().Equal(d("5.50")))
}

func TestListenerReceivesOneEventPerSuccessfulMutation(t *testing.T) {
	var events []core.Event
	l := New(ListenerFunc(func(ev core.Event) { events = append(events, ev) }))

	_, err := l.AddExpense("Coffee", d("3.50"), "Food")
	require.NoError(t, err)
	require.NoError(t, l.EditAmount(0, d("4")))
	require.NoError(t, l.SetGoal(d("10")))
	require.NoError(t, l.RemoveExpense(0))

	// Rejections do not notify.
	_, _ = l.AddExpense("x", d("-1"), "y")
	_ = l.EditAmount(5, d("1"))
	_ = l.RemoveExpense(0)
	_ = l.SetGoal(d("0"))

	require.Len(t, events, 4)
	assert.Equal(t, core.EventExpenseAdded, events[0].Kind)
	assert.Equal(t, core.EventAmountEdited, events[1].Kind)
	assert.True(t, events[1].Expense.Amount.Equal(d("4")))
	assert.Equal(t, core.EventGoalSet, events[2].Kind)
	assert.Equal(t, -1, events[2].Index)
	assert.Equal(t, core.EventExpenseRemoved, events[3].Kind)
	assert.Equal(t, "Coffee", events[3].Expense.Description)
}

func TestListenersSeeConcurrentMutationsInLedgerOrder(t *testing.T) {
	var (
		mu      sync.Mutex
		indices []int
	)
	l := New(ListenerFunc(func(ev core.Event) {
		mu.Lock()
		indices = append(indices, ev.Index)
		mu.Unlock()
	}))

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.AddExpense("e", d("1"), "c")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, indices, n)
	for i, got := range indices {
		require.Equal(t, i, got, "notification %d arrived out of order", i)
	}
}

func TestListenerMayQueryLedger(t *testing.T) {
	l := New()
	var seen decimal.Decimal
	l.Subscribe(ListenerFunc(func(core.Event) { seen = l.Total() }))

	_, err := l.AddExpense("Bus", d("2"), "Transport")
	require.NoError(t, err)
	assert.True(t, seen.Equal(d("2")))
}

func TestPanickingListenerDoesNotBreakMutation(t *testing.T) {
	calls := 0
	l := New(
		ListenerFunc(func(core.Event) { panic("boom") }),
		ListenerFunc(func(core.Event) { calls++ }),
	)
	_, err := l.AddExpense("a", d("1"), "b")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, l.Len())
}

func TestConcurrentAddsSumExactly(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.AddExpense("e", d("0.10"), "c")
			_ = l.Total()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, l.Len())
	assert.True(t, l.Total().Equal(d("5")))
}
