package staking

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"qststaking/core/events"
	"qststaking/native/token"
)

type mockState struct {
	pool     *Pool
	accounts map[[20]byte]*Account
	mints    map[[20]byte]*token.Mint
	balances map[[40]byte]uint64
}

func newMockState() *mockState {
	return &mockState{
		accounts: make(map[[20]byte]*Account),
		mints:    make(map[[20]byte]*token.Mint),
		balances: make(map[[40]byte]uint64),
	}
}

func (m *mockState) StakingPoolGet() (*Pool, bool, error) {
	if m.pool == nil {
		return nil, false, nil
	}
	return m.pool.Clone(), true, nil
}

func (m *mockState) StakingPoolPut(pool *Pool) error {
	m.pool = pool.Clone()
	return nil
}

func (m *mockState) StakeAccountGet(owner [20]byte) (*Account, bool, error) {
	account, ok := m.accounts[owner]
	if !ok {
		return nil, false, nil
	}
	return account.Clone(), true, nil
}

func (m *mockState) StakeAccountPut(account *Account) error {
	m.accounts[account.Owner] = account.Clone()
	return nil
}

func (m *mockState) MintGet(addr [20]byte) (*token.Mint, bool, error) {
	mint, ok := m.mints[addr]
	if !ok {
		return nil, false, nil
	}
	return mint.Clone(), true, nil
}

func (m *mockState) MintPut(mint *token.Mint) error {
	m.mints[mint.Address] = mint.Clone()
	return nil
}

func balanceKey(mint, owner [20]byte) [40]byte {
	var key [40]byte
	copy(key[:20], mint[:])
	copy(key[20:], owner[:])
	return key
}

func (m *mockState) TokenBalance(mint, owner [20]byte) (uint64, error) {
	return m.balances[balanceKey(mint, owner)], nil
}

func (m *mockState) SetTokenBalance(mint, owner [20]byte, amount uint64) error {
	m.balances[balanceKey(mint, owner)] = amount
	return nil
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

func (c *captureEmitter) types() []string {
	out := make([]string, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.EventType())
	}
	return out
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

var (
	testMint      = newTestAddress(0xAA)
	testAuthority = newTestAddress(0x01)
	alice         = newTestAddress(0x02)
	bob           = newTestAddress(0x03)
)

const genesisTime = int64(1_700_000_000)

type harness struct {
	t       *testing.T
	engine  *Engine
	state   *mockState
	ledger  *token.Ledger
	emitter *captureEmitter
	now     int64
}

func newHarness(t *testing.T, params Params, decimals uint8) *harness {
	t.Helper()
	h := &harness{t: t, state: newMockState(), emitter: &captureEmitter{}, now: genesisTime}
	h.ledger = token.NewLedger(h.state)
	require.NoError(t, h.ledger.RegisterMint(&token.Mint{Address: testMint, Symbol: "QST", Decimals: decimals, Authority: testAuthority}))
	h.engine = NewEngine(params)
	h.engine.SetState(h.state)
	h.engine.SetLedger(h.ledger)
	h.engine.SetEmitter(h.emitter)
	h.engine.SetNowFunc(func() int64 { return h.now })
	return h
}

func newDevnetHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, DevnetParams(), 9)
	_, err := h.engine.Initialize(testAuthority, testAuthority, testMint)
	require.NoError(t, err)
	h.fund(alice, 50_000_000_000)
	h.fund(bob, 50_000_000_000)
	return h
}

func (h *harness) fund(owner [20]byte, amount uint64) {
	h.t.Helper()
	require.NoError(h.t, h.ledger.MintTo(testAuthority, testMint, owner, amount))
}

func (h *harness) balance(owner [20]byte) uint64 {
	h.t.Helper()
	bal, err := h.ledger.Balance(testMint, owner)
	require.NoError(h.t, err)
	return bal
}

func (h *harness) advance(seconds int64) { h.now += seconds }

func TestInitialize(t *testing.T) {
	h := newHarness(t, DevnetParams(), 9)

	pool, err := h.engine.Initialize(testAuthority, testAuthority, newTestAddress(0xEE))
	require.ErrorIs(t, err, ErrMintNotFound)
	require.Nil(t, pool)

	pool, err = h.engine.Initialize(testAuthority, testAuthority, testMint)
	require.NoError(t, err)
	require.Equal(t, testAuthority, pool.Authority)
	require.Equal(t, testMint, pool.Mint)
	require.Zero(t, pool.TotalStaked)
	require.Zero(t, pool.FirstStakeTimestamp)

	_, err = h.engine.Initialize(testAuthority, testAuthority, testMint)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.Equal(t, CodeAlreadyInitialized, CodeOf(err))
	require.Equal(t, []string{events.TypeStakingInitialized}, h.emitter.types())
}

func TestInitializeGuards(t *testing.T) {
	params := MainnetParams()
	params.DeployAuthority = testAuthority

	h := newHarness(t, params, 9)
	_, err := h.engine.Initialize(alice, alice, testMint)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.engine.Initialize(testAuthority, alice, testMint)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.engine.Initialize(testAuthority, testAuthority, testMint)
	require.ErrorIs(t, err, ErrInvalidMintDecimals)

	h = newHarness(t, params, 6)
	_, err = h.engine.Initialize(testAuthority, testAuthority, testMint)
	require.NoError(t, err)

	h = newHarness(t, DevnetParams(), 9)
	_, err = h.engine.Initialize(alice, [20]byte{}, testMint)
	require.ErrorIs(t, err, ErrInvalidAuthority)
}

func TestOperationsRequireInitializedPool(t *testing.T) {
	h := newHarness(t, DevnetParams(), 9)
	_, err := h.engine.Stake(alice, 2_000_000)
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = h.engine.StartStakeWindow(testAuthority)
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = h.engine.StakeInfo(alice)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestStakeAmountBounds(t *testing.T) {
	params := DevnetParams()
	tests := []struct {
		name    string
		amount  uint64
		wantErr error
	}{
		{name: "zero", amount: 0, wantErr: ErrInvalidAmount},
		{name: "below minimum", amount: params.MinStake - 1, wantErr: ErrInsufficientStakeAmount},
		{name: "minimum", amount: params.MinStake},
		{name: "maximum", amount: params.MaxStake},
		{name: "above maximum", amount: params.MaxStake + 1, wantErr: ErrStakeAmountTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newDevnetHarness(t)
			before := h.balance(alice)
			account, err := h.engine.Stake(alice, tc.amount)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Equal(t, before, h.balance(alice))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.amount, account.Amount)
			require.Equal(t, before-tc.amount, h.balance(alice))
			require.Equal(t, tc.amount, h.balance(EscrowAddress()))
			pool, err := h.engine.Pool()
			require.NoError(t, err)
			require.Equal(t, tc.amount, pool.TotalStaked)
		})
	}
}

func TestStakeInsufficientTokenBalance(t *testing.T) {
	h := newDevnetHarness(t)
	poor := newTestAddress(0x09)
	h.fund(poor, 1_000_000)

	_, err := h.engine.Stake(poor, 2_000_000)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, CodeInsufficientBalance, CodeOf(err))
	_, err = h.engine.Account(poor)
	require.ErrorIs(t, err, ErrStakeAccountNotFound)
}

func TestStakeNodeKeysFollowCumulativeStake(t *testing.T) {
	h := newDevnetHarness(t)
	for _, amount := range []uint64{2_500_000, 3_700_000, 2_000_000, 9_999_999} {
		account, err := h.engine.Stake(alice, amount)
		require.NoError(t, err)
		require.Equal(t, uint32(account.CumulativeStaked/DevnetParams().TierUnit), account.NodeKeysEarned)
	}
}

func TestAutoWindowOpensOnFirstStake(t *testing.T) {
	h := newDevnetHarness(t)
	params := h.engine.Params()

	_, err := h.engine.Stake(alice, 2_000_000)
	require.NoError(t, err)
	pool, err := h.engine.Pool()
	require.NoError(t, err)
	require.Equal(t, genesisTime, pool.FirstStakeTimestamp)
	require.Equal(t, genesisTime+params.WindowDuration, pool.StakeWindowEnd)
	require.Equal(t, genesisTime+params.EnrollmentPeriod, pool.BonusEnrollmentDeadline)
	require.Equal(t, []string{events.TypeStakingInitialized, events.TypeStakeWindowStarted, events.TypeStaked}, h.emitter.types())

	h.advance(params.WindowDuration)
	_, err = h.engine.Stake(bob, 2_000_000)
	require.NoError(t, err, "window end is inclusive")

	h.advance(1)
	_, err = h.engine.Stake(bob, 2_000_000)
	require.ErrorIs(t, err, ErrStakeWindowClosed)

	pool, err = h.engine.Pool()
	require.NoError(t, err)
	require.Equal(t, genesisTime, pool.FirstStakeTimestamp, "window never reopens")
}

func TestAutoWindowOpensOnceAtClockZero(t *testing.T) {
	h := newDevnetHarness(t)
	h.now = 0
	params := h.engine.Params()

	_, err := h.engine.Stake(alice, 2_000_000)
	require.NoError(t, err)
	h.advance(10)
	_, err = h.engine.Stake(bob, 2_000_000)
	require.NoError(t, err)

	pool, err := h.engine.Pool()
	require.NoError(t, err)
	require.True(t, pool.WindowOpened())
	require.Zero(t, pool.FirstStakeTimestamp)
	require.Equal(t, params.WindowDuration, pool.StakeWindowEnd)
	require.Equal(t, params.EnrollmentPeriod, pool.BonusEnrollmentDeadline)
	require.Equal(t, []string{
		events.TypeStakingInitialized,
		events.TypeStakeWindowStarted,
		events.TypeStaked,
		events.TypeStaked,
	}, h.emitter.types())
}

func TestExplicitWindow(t *testing.T) {
	h := newHarness(t, MainnetParams(), 6)
	_, err := h.engine.Initialize(testAuthority, testAuthority, testMint)
	require.NoError(t, err)
	min := MainnetParams().MinStake
	h.fund(alice, 10*min)

	_, err = h.engine.Stake(alice, min)
	require.ErrorIs(t, err, ErrStakeWindowNotStarted)

	_, err = h.engine.StartStakeWindow(alice)
	require.ErrorIs(t, err, ErrUnauthorized)

	pool, err := h.engine.StartStakeWindow(testAuthority)
	require.NoError(t, err)
	require.Equal(t, genesisTime, pool.FirstStakeTimestamp)
	require.Equal(t, genesisTime+9*day, pool.StakeWindowEnd)
	require.Equal(t, genesisTime+48*hour, pool.BonusEnrollmentDeadline)

	h.advance(100)
	again, err := h.engine.StartStakeWindow(testAuthority)
	require.NoError(t, err)
	require.Equal(t, pool.StakeWindowEnd, again.StakeWindowEnd)

	account, err := h.engine.Stake(alice, min)
	require.NoError(t, err)
	require.Equal(t, uint32(2), account.NodeKeysEarned)
	require.Equal(t, h.now+25*day, account.PrincipalUnlockTime)
}

func TestTopUpKeepsUnlockTime(t *testing.T) {
	h := newDevnetHarness(t)
	first, err := h.engine.Stake(alice, 2_000_000)
	require.NoError(t, err)
	h.advance(20)
	second, err := h.engine.Stake(alice, 2_000_000)
	require.NoError(t, err)
	require.Equal(t, first.PrincipalUnlockTime, second.PrincipalUnlockTime)
	require.Equal(t, uint64(4_000_000), second.Amount)
}

func TestEnrollInBonus(t *testing.T) {
	h := newDevnetHarness(t)
	_, err := h.engine.EnrollInBonus(alice)
	require.ErrorIs(t, err, ErrNoStakeToEnroll)

	staked, err := h.engine.Stake(alice, 3_000_000)
	require.NoError(t, err)
	account, err := h.engine.EnrollInBonus(alice)
	require.NoError(t, err)
	require.True(t, account.EnrolledInBonus)
	require.Greater(t, account.BonusUnlockTime, account.PrincipalUnlockTime)
	require.Equal(t, staked.PrincipalUnlockTime+30, account.BonusUnlockTime)

	pool, err := h.engine.Pool()
	require.NoError(t, err)
	require.Equal(t, uint64(3_000_000), pool.TotalEnrolledStake)
	require.Equal(t, account.BonusUnlockTime, pool.LatestBonusUnlockTime)

	_, err = h.engine.EnrollInBonus(alice)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)

	// Enrolled top-ups join the enrolled total.
	_, err = h.engine.Stake(alice, 2_000_000)
	require.NoError(t, err)
	pool, err = h.engine.Pool()
	require.NoError(t, err)
	require.Equal(t, uint64(5_000_000), pool.TotalEnrolledStake)
	require.Equal(t, uint64(5_000_000), pool.TotalBonusWeight)
}

func TestEnrollmentDeadline(t *testing.T) {
	h := newDevnetHarness(t)
	_, err := h.engine.Stake(alice, 2_000_000)
	require.NoError(t, err)
	h.advance(h.engine.Params().EnrollmentPeriod + 1)
	_, err = h.engine.EnrollInBonus(alice)
	require.ErrorIs(t, err, ErrBonusEnrollmentClosed)
}

func TestUnstake(t *testing.T) {
	h := newDevnetHarness(t)
	_, err := h.engine.Unstake(alice, 1)
	require.ErrorIs(t, err, ErrStakeAccountNotFound)

	_, err = h.engine.Stake(alice, 5_000_000)
	require.NoError(t, err)

	_, err = h.engine.Unstake(alice, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = h.engine.Unstake(alice, 5_000_001)
	require.ErrorIs(t, err, ErrInsufficientStakeBalance)
	_, err = h.engine.Unstake(alice, 1_000_000)
	require.ErrorIs(t, err, ErrStillLocked)

	h.advance(h.engine.Params().LockDuration)
	before := h.balance(alice)
	result, err := h.engine.Unstake(alice, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(4_000_000), result.Remaining)
	require.Zero(t, result.Penalty)
	require.Equal(t, before+1_000_000, h.balance(alice))

	account, err := h.engine.Account(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(4_000_000), account.Amount)
	require.Equal(t, uint32(5), account.NodeKeysEarned, "node keys survive withdrawals")
	pool, err := h.engine.Pool()
	require.NoError(t, err)
	require.Equal(t, uint64(4_000_000), pool.TotalStaked)
}

func TestUnstakeBlockedOnceEnrolled(t *testing.T) {
	h := newDevnetHarness(t)
	_, err := h.engine.Stake(alice, 5_000_000)
	require.NoError(t, err)
	_, err = h.engine.EnrollInBonus(alice)
	require.NoError(t, err)

	for _, elapsed := range []int64{0, 60, 1_000_000} {
		h.advance(elapsed)
		for _, amount := range []uint64{0, 1, 5_000_000, 50_000_000} {
			_, err := h.engine.Unstake(alice, amount)
			require.ErrorIs(t, err, ErrBonusEnrolledCannotUnstake)
		}
	}
}

func TestEarlyExitPenaltyFundsBonus(t *testing.T) {
	params := DevnetParams()
	params.EarlyExit = []PenaltyTier{{Within: 20, RateBps: 2_000}, {Within: 40, RateBps: 3_000}}
	h := newHarness(t, params, 9)
	_, err := h.engine.Initialize(testAuthority, testAuthority, testMint)
	require.NoError(t, err)
	h.fund(alice, 100_000_000)
	h.fund(bob, 100_000_000)

	_, err = h.engine.Stake(bob, 4_000_000)
	require.NoError(t, err)
	_, err = h.engine.EnrollInBonus(bob)
	require.NoError(t, err)
	_, err = h.engine.Stake(alice, 10_000_000)
	require.NoError(t, err)

	// 60s lock, 10s elapsed: 50s remaining, no tier covers it.
	h.advance(10)
	_, err = h.engine.Unstake(alice, 1_000_000)
	require.ErrorIs(t, err, ErrStillLocked)

	// 30s remaining: 30% tier.
	h.advance(20)
	result, err := h.engine.Unstake(alice, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(300_000), result.Penalty)
	require.Equal(t, uint64(700_000), result.NetToUser)

	// 15s remaining: 20% tier.
	h.advance(15)
	result, err = h.engine.Unstake(alice, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(200_000), result.Penalty)

	pool, err := h.engine.Pool()
	require.NoError(t, err)
	require.Equal(t, uint64(500_000), pool.PenaltyVault)
	require.Equal(t, uint64(12_000_000), pool.TotalStaked)
	require.Equal(t, pool.TotalStaked+pool.PenaltyVault, h.balance(EscrowAddress()))

	info, err := h.engine.StakeInfo(bob)
	require.NoError(t, err)
	require.Equal(t, uint64(500_000), info.PotentialBonus)

	_, err = h.engine.WithdrawBonus(bob)
	require.ErrorIs(t, err, ErrBonusWithdrawalNotYetAvailable)

	h.advance(params.LockDuration + params.BonusExtension + params.BonusWithdrawalDelay)
	_, err = h.engine.WithdrawBonus(bob)
	require.ErrorIs(t, err, ErrMustWithdrawPrincipalFirst)
	_, err = h.engine.WithdrawBonus(alice)
	require.ErrorIs(t, err, ErrNotEnrolledInBonus)

	_, err = h.engine.WithdrawAll(bob)
	require.NoError(t, err)
	before := h.balance(bob)
	bonus, err := h.engine.WithdrawBonus(bob)
	require.NoError(t, err)
	require.Equal(t, uint64(500_000), bonus)
	require.Equal(t, before+500_000, h.balance(bob))

	_, err = h.engine.WithdrawBonus(bob)
	require.ErrorIs(t, err, ErrBonusAlreadyClaimed)
}

func TestBonusSplitsProRata(t *testing.T) {
	params := DevnetParams()
	params.EarlyExit = []PenaltyTier{{Within: 60, RateBps: 10_000}}
	h := newHarness(t, params, 9)
	_, err := h.engine.Initialize(testAuthority, testAuthority, testMint)
	require.NoError(t, err)
	carol := newTestAddress(0x04)
	for _, owner := range [][20]byte{alice, bob, carol} {
		h.fund(owner, 100_000_000)
	}

	_, err = h.engine.Stake(alice, 3_000_000)
	require.NoError(t, err)
	_, err = h.engine.Stake(bob, 4_000_000)
	require.NoError(t, err)
	for _, owner := range [][20]byte{alice, bob} {
		_, err = h.engine.EnrollInBonus(owner)
		require.NoError(t, err)
	}
	_, err = h.engine.Stake(carol, 2_000_001)
	require.NoError(t, err)
	_, err = h.engine.Unstake(carol, 2_000_001)
	require.NoError(t, err)

	h.advance(params.LockDuration + params.BonusExtension + params.BonusWithdrawalDelay)
	var paid uint64
	for _, owner := range [][20]byte{bob, alice} {
		_, err = h.engine.WithdrawAll(owner)
		require.NoError(t, err)
		bonus, err := h.engine.WithdrawBonus(owner)
		require.NoError(t, err)
		paid += bonus
	}
	pool, err := h.engine.Pool()
	require.NoError(t, err)
	require.Equal(t, uint64(2_000_001), pool.BonusPoolSnapshot)
	require.Equal(t, uint64(2_000_001), paid+pool.PenaltyVault)
	require.Equal(t, uint64(1), pool.PenaltyVault)

	_, err = h.engine.CollectDust(alice)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.engine.CollectDust(testAuthority)
	require.ErrorIs(t, err, ErrBonusClaimPeriodNotExpired)

	h.advance(params.ClaimPeriod)
	before := h.balance(testAuthority)
	dust, err := h.engine.CollectDust(testAuthority)
	require.NoError(t, err)
	require.Equal(t, uint64(1), dust)
	require.Equal(t, before+1, h.balance(testAuthority))

	_, err = h.engine.CollectDust(testAuthority)
	require.ErrorIs(t, err, ErrNoDustToCollect)
	require.Zero(t, h.balance(EscrowAddress()))
}

func TestWithdrawAll(t *testing.T) {
	h := newDevnetHarness(t)
	_, err := h.engine.WithdrawAll(alice)
	require.ErrorIs(t, err, ErrNoStakeToWithdraw)

	_, err = h.engine.Stake(alice, 3_000_000)
	require.NoError(t, err)
	h.advance(59)
	_, err = h.engine.WithdrawAll(alice)
	require.ErrorIs(t, err, ErrStillLocked)

	h.advance(1)
	amount, err := h.engine.WithdrawAll(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(3_000_000), amount)
	_, err = h.engine.WithdrawAll(alice)
	require.ErrorIs(t, err, ErrNoStakeToWithdraw)

	// A new deposit cycle starts a fresh lock.
	account, err := h.engine.Stake(alice, 2_000_000)
	require.NoError(t, err)
	require.Equal(t, h.now+60, account.PrincipalUnlockTime)
	require.Equal(t, uint32(5), account.NodeKeysEarned)
}

func TestProfileAScenario(t *testing.T) {
	h := newDevnetHarness(t)
	start := h.now

	account, err := h.engine.Stake(alice, 4_000_000)
	require.NoError(t, err)
	require.Equal(t, uint32(4), account.NodeKeysEarned)

	h.advance(5)
	account, err = h.engine.Stake(alice, 2_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(6_000_000), account.Amount)
	require.Equal(t, uint32(6), account.NodeKeysEarned)

	account, err = h.engine.EnrollInBonus(alice)
	require.NoError(t, err)
	require.Equal(t, account.PrincipalUnlockTime+30, account.BonusUnlockTime)

	_, err = h.engine.Unstake(alice, 1_000_000)
	require.ErrorIs(t, err, ErrBonusEnrolledCannotUnstake)

	h.now = start + 89
	_, err = h.engine.WithdrawAll(alice)
	require.ErrorIs(t, err, ErrStillLocked)

	h.now = start + 95
	amount, err := h.engine.WithdrawAll(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(6_000_000), amount)

	info, err := h.engine.StakeInfo(alice)
	require.NoError(t, err)
	require.Zero(t, info.Amount)
	require.Equal(t, uint32(6), info.NodeKeysEarned)
	require.True(t, info.EnrolledInBonus)
	require.True(t, info.IsUnlocked)
	require.Zero(t, info.TimeUntilUnlock)

	pool, err := h.engine.Pool()
	require.NoError(t, err)
	require.Zero(t, pool.TotalStaked)
	require.Zero(t, pool.TotalEnrolledStake)
}

func TestStakeInfo(t *testing.T) {
	h := newDevnetHarness(t)
	_, err := h.engine.StakeInfo(alice)
	require.ErrorIs(t, err, ErrStakeAccountNotFound)

	_, err = h.engine.Stake(alice, 2_000_000)
	require.NoError(t, err)
	h.advance(10)
	info, err := h.engine.StakeInfo(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(2_000_000), info.Amount)
	require.Equal(t, uint32(2), info.NodeKeysEarned)
	require.False(t, info.EnrolledInBonus)
	require.Equal(t, info.PrincipalUnlockTime, info.UnlockTime)
	require.False(t, info.IsUnlocked)
	require.Equal(t, int64(50), info.TimeUntilUnlock)
	require.Zero(t, info.PotentialBonus)
}

func TestIndependentAccountsSumToPoolTotal(t *testing.T) {
	orders := [][]struct {
		owner  [20]byte
		amount uint64
	}{
		{{alice, 3_000_000}, {bob, 7_000_000}, {alice, 2_000_000}},
		{{bob, 7_000_000}, {alice, 2_000_000}, {alice, 3_000_000}},
	}
	for i, order := range orders {
		h := newDevnetHarness(t)
		for _, step := range order {
			_, err := h.engine.Stake(step.owner, step.amount)
			require.NoError(t, err, "order %d", i)
		}
		a, err := h.engine.Account(alice)
		require.NoError(t, err)
		b, err := h.engine.Account(bob)
		require.NoError(t, err)
		require.Equal(t, uint64(5_000_000), a.Amount)
		require.Equal(t, uint32(5), a.NodeKeysEarned)
		require.Equal(t, uint64(7_000_000), b.Amount)
		require.Equal(t, uint32(7), b.NodeKeysEarned)
		pool, err := h.engine.Pool()
		require.NoError(t, err)
		require.Equal(t, a.Amount+b.Amount, pool.TotalStaked)
	}
}

func TestEngineWithoutStateFails(t *testing.T) {
	engine := NewEngine(DevnetParams())
	_, err := engine.Stake(alice, 2_000_000)
	require.ErrorIs(t, err, errNilState)
	require.Empty(t, CodeOf(err))
}
