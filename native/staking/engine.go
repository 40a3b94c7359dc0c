package staking

import (
	"errors"
	"log/slog"
	"time"

	"qststaking/core/events"
	"qststaking/native/token"
)

type engineState interface {
	StakingPoolGet() (*Pool, bool, error)
	StakingPoolPut(*Pool) error
	StakeAccountGet(owner [20]byte) (*Account, bool, error)
	StakeAccountPut(*Account) error
}

type tokenLedger interface {
	Mint(addr [20]byte) (*token.Mint, error)
	Transfer(mint, from, to [20]byte, amount uint64) error
}

// Engine applies the staking protocol against injected state, a token ledger
// and a clock. It performs no locking; callers serialise invocations and
// discard staged state when an operation fails.
type Engine struct {
	params  Params
	state   engineState
	ledger  tokenLedger
	emitter events.Emitter
	logger  *slog.Logger
	nowFn   func() int64
}

// NewEngine creates an engine for the supplied deployment parameters.
func NewEngine(params Params) *Engine {
	return &Engine{
		params:  params,
		emitter: events.NoopEmitter{},
		logger:  slog.Default().With("component", "staking"),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// Params returns the deployment parameters.
func (e *Engine) Params() Params { return e.params }

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the token ledger that moves principal in and out of
// the pool escrow.
func (e *Engine) SetLedger(ledger tokenLedger) { e.ledger = ledger }

// SetNowFunc overrides the clock. Passing nil restores wall-clock time.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger overrides the structured logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger.With("component", "staking")
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter != nil && evt != nil {
		e.emitter.Emit(evt)
	}
}

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil || e.ledger == nil {
		return errNilState
	}
	return nil
}

func (e *Engine) loadPool() (*Pool, error) {
	pool, ok, err := e.state.StakingPoolGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return pool, nil
}

func (e *Engine) transfer(mint, from, to [20]byte, amount uint64) error {
	if amount == 0 {
		return nil
	}
	err := e.ledger.Transfer(mint, from, to, amount)
	if errors.Is(err, token.ErrInsufficientBalance) {
		return ErrInsufficientBalance
	}
	return err
}

// Initialize creates the pool singleton with admin as its authority and mint
// as the accepted token.
func (e *Engine) Initialize(caller, admin, mint [20]byte) (*Pool, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, ok, err := e.state.StakingPoolGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	if e.params.DeployAuthority != ([20]byte{}) {
		if caller != e.params.DeployAuthority || admin != caller {
			return nil, ErrUnauthorized
		}
	}
	if admin == ([20]byte{}) {
		return nil, ErrInvalidAuthority
	}
	meta, err := e.ledger.Mint(mint)
	if errors.Is(err, token.ErrMintNotFound) {
		return nil, ErrMintNotFound
	}
	if err != nil {
		return nil, err
	}
	if e.params.RequiredMintDecimals != 0 && meta.Decimals != e.params.RequiredMintDecimals {
		return nil, ErrInvalidMintDecimals
	}

	pool := &Pool{Authority: admin, Mint: mint}
	if err := e.state.StakingPoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(events.StakingInitialized{Pool: PoolAddress(), Authority: admin, Mint: mint})
	e.logger.Info("staking pool initialized", "authority", formatAddr(admin), "mint", formatAddr(mint))
	return pool.Clone(), nil
}

func (e *Engine) openWindow(pool *Pool, now int64) error {
	end, err := addSeconds(now, e.params.WindowDuration)
	if err != nil {
		return err
	}
	deadline, err := addSeconds(now, e.params.EnrollmentPeriod)
	if err != nil {
		return err
	}
	pool.WindowStarted = true
	pool.FirstStakeTimestamp = now
	pool.StakeWindowEnd = end
	pool.BonusEnrollmentDeadline = deadline
	return nil
}

// StartStakeWindow opens the stake window. Only the authority may call it and
// a second call leaves the window untouched.
func (e *Engine) StartStakeWindow(caller [20]byte) (*Pool, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if caller != pool.Authority {
		return nil, ErrUnauthorized
	}
	if pool.WindowOpened() {
		e.logger.Debug("stake window already open", "start", pool.FirstStakeTimestamp)
		return pool, nil
	}
	now := e.now()
	if err := e.openWindow(pool, now); err != nil {
		return nil, err
	}
	if err := e.state.StakingPoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(windowEvent(pool, false))
	e.logger.Info("stake window started", "start", now, "end", pool.StakeWindowEnd)
	return pool.Clone(), nil
}

func windowEvent(pool *Pool, auto bool) events.StakeWindowStarted {
	return events.StakeWindowStarted{
		StartTime:          pool.FirstStakeTimestamp,
		WindowEnd:          pool.StakeWindowEnd,
		EnrollmentDeadline: pool.BonusEnrollmentDeadline,
		AutoStarted:        auto,
	}
}

// Stake deposits amount from the caller's token account into the pool escrow.
func (e *Engine) Stake(caller [20]byte, amount uint64) (*Account, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	switch {
	case amount == 0:
		return nil, ErrInvalidAmount
	case amount < e.params.MinStake:
		return nil, ErrInsufficientStakeAmount
	case amount > e.params.MaxStake:
		return nil, ErrStakeAmountTooLarge
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	now := e.now()
	autoStarted := false
	if !pool.WindowOpened() {
		if e.params.WindowMode != WindowAuto {
			return nil, ErrStakeWindowNotStarted
		}
		if err := e.openWindow(pool, now); err != nil {
			return nil, err
		}
		autoStarted = true
	}
	if now > pool.StakeWindowEnd {
		return nil, ErrStakeWindowClosed
	}

	account, ok, err := e.state.StakeAccountGet(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		account = &Account{Owner: caller}
	}

	updated := account.Clone()
	if updated.Amount, err = checkedAdd(account.Amount, amount); err != nil {
		return nil, err
	}
	if updated.CumulativeStaked, err = checkedAdd(account.CumulativeStaked, amount); err != nil {
		return nil, err
	}
	if updated.NodeKeysEarned, err = nodeKeys(updated.CumulativeStaked, e.params.TierUnit); err != nil {
		return nil, err
	}
	nextPool := pool.Clone()
	if nextPool.TotalStaked, err = checkedAdd(pool.TotalStaked, amount); err != nil {
		return nil, err
	}
	if account.Amount == 0 {
		if updated.PrincipalUnlockTime, err = addSeconds(now, e.params.LockDuration); err != nil {
			return nil, err
		}
	}
	if account.EnrolledInBonus {
		if nextPool.TotalEnrolledStake, err = checkedAdd(pool.TotalEnrolledStake, amount); err != nil {
			return nil, err
		}
		if account.Amount == 0 {
			if updated.BonusUnlockTime, err = addSeconds(updated.PrincipalUnlockTime, e.params.BonusExtension); err != nil {
				return nil, err
			}
			if updated.BonusUnlockTime > nextPool.LatestBonusUnlockTime {
				nextPool.LatestBonusUnlockTime = updated.BonusUnlockTime
			}
		}
		if !pool.BonusSnapshotTaken {
			if updated.BonusWeight, err = checkedAdd(account.BonusWeight, amount); err != nil {
				return nil, err
			}
			if nextPool.TotalBonusWeight, err = checkedAdd(pool.TotalBonusWeight, amount); err != nil {
				return nil, err
			}
		}
	}

	if err := e.transfer(pool.Mint, caller, EscrowAddress(), amount); err != nil {
		return nil, err
	}
	if err := e.state.StakeAccountPut(updated); err != nil {
		return nil, err
	}
	if err := e.state.StakingPoolPut(nextPool); err != nil {
		return nil, err
	}
	if autoStarted {
		e.emit(windowEvent(nextPool, true))
		e.logger.Info("stake window auto-started", "start", now, "end", nextPool.StakeWindowEnd)
	}
	e.emit(events.Staked{
		Owner:               caller,
		Amount:              amount,
		AccountAmount:       updated.Amount,
		TotalStaked:         nextPool.TotalStaked,
		NodeKeysEarned:      updated.NodeKeysEarned,
		PrincipalUnlockTime: updated.PrincipalUnlockTime,
		BonusUnlockTime:     updated.BonusUnlockTime,
		EnrolledInBonus:     updated.EnrolledInBonus,
		Timestamp:           now,
	})
	e.logger.Info("stake accepted",
		"owner", formatAddr(caller),
		"amount", amount,
		"node_keys", updated.NodeKeysEarned,
		"total_staked", nextPool.TotalStaked)
	return updated.Clone(), nil
}

// EnrollInBonus commits the caller's current stake to the bonus lock. The
// enrollment is one-way.
func (e *Engine) EnrollInBonus(caller [20]byte) (*Account, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	account, ok, err := e.state.StakeAccountGet(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoStakeToEnroll
	}
	if account.EnrolledInBonus {
		return nil, ErrAlreadyEnrolled
	}
	if account.Amount == 0 {
		return nil, ErrNoStakeToEnroll
	}
	now := e.now()
	if !pool.WindowOpened() || now > pool.BonusEnrollmentDeadline {
		return nil, ErrBonusEnrollmentClosed
	}

	updated := account.Clone()
	updated.EnrolledInBonus = true
	if updated.BonusUnlockTime, err = addSeconds(account.PrincipalUnlockTime, e.params.BonusExtension); err != nil {
		return nil, err
	}
	nextPool := pool.Clone()
	if nextPool.TotalEnrolledStake, err = checkedAdd(pool.TotalEnrolledStake, account.Amount); err != nil {
		return nil, err
	}
	if !pool.BonusSnapshotTaken {
		if updated.BonusWeight, err = checkedAdd(account.BonusWeight, account.Amount); err != nil {
			return nil, err
		}
		if nextPool.TotalBonusWeight, err = checkedAdd(pool.TotalBonusWeight, account.Amount); err != nil {
			return nil, err
		}
	}
	if updated.BonusUnlockTime > nextPool.LatestBonusUnlockTime {
		nextPool.LatestBonusUnlockTime = updated.BonusUnlockTime
	}

	if err := e.state.StakeAccountPut(updated); err != nil {
		return nil, err
	}
	if err := e.state.StakingPoolPut(nextPool); err != nil {
		return nil, err
	}
	e.emit(events.BonusEnrolled{
		Owner:           caller,
		EnrolledStake:   updated.Amount,
		BonusUnlockTime: updated.BonusUnlockTime,
		Timestamp:       now,
	})
	e.logger.Info("bonus enrollment", "owner", formatAddr(caller), "stake", updated.Amount, "bonus_unlock", updated.BonusUnlockTime)
	return updated.Clone(), nil
}

// Unstake withdraws part of a non-enrolled account's principal after its lock
// expires, or earlier when an early-exit tier covers the remaining lock time.
func (e *Engine) Unstake(caller [20]byte, amount uint64) (*UnstakeResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	account, ok, err := e.state.StakeAccountGet(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStakeAccountNotFound
	}
	if account.EnrolledInBonus {
		return nil, ErrBonusEnrolledCannotUnstake
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if amount > account.Amount {
		return nil, ErrInsufficientStakeBalance
	}
	now := e.now()
	var penalty uint64
	if remaining := account.PrincipalUnlockTime - now; remaining > 0 {
		rate, ok := e.params.earlyExitRate(remaining)
		if !ok {
			return nil, ErrStillLocked
		}
		if penalty, err = mulDiv(amount, rate, bpsDenominator); err != nil {
			return nil, err
		}
	}
	net := amount - penalty

	updated := account.Clone()
	updated.Amount = account.Amount - amount
	nextPool := pool.Clone()
	if nextPool.TotalStaked, err = checkedSub(pool.TotalStaked, amount); err != nil {
		return nil, err
	}
	if nextPool.PenaltyVault, err = checkedAdd(pool.PenaltyVault, penalty); err != nil {
		return nil, err
	}

	if err := e.transfer(pool.Mint, EscrowAddress(), caller, net); err != nil {
		return nil, err
	}
	if err := e.state.StakeAccountPut(updated); err != nil {
		return nil, err
	}
	if err := e.state.StakingPoolPut(nextPool); err != nil {
		return nil, err
	}
	e.emit(events.Unstaked{
		Owner:        caller,
		Amount:       amount,
		Remaining:    updated.Amount,
		Penalty:      penalty,
		NetToUser:    net,
		PenaltyVault: nextPool.PenaltyVault,
		Timestamp:    now,
	})
	e.logger.Info("unstake", "owner", formatAddr(caller), "amount", amount, "penalty", penalty, "remaining", updated.Amount)
	return &UnstakeResult{Amount: amount, Penalty: penalty, NetToUser: net, Remaining: updated.Amount}, nil
}

// WithdrawAll returns the caller's whole principal once every lock applying
// to it has expired. Node keys and the enrollment flag are retained.
func (e *Engine) WithdrawAll(caller [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	pool, err := e.loadPool()
	if err != nil {
		return 0, err
	}
	account, ok, err := e.state.StakeAccountGet(caller)
	if err != nil {
		return 0, err
	}
	if !ok || account.Amount == 0 {
		return 0, ErrNoStakeToWithdraw
	}
	now := e.now()
	if now < account.PrincipalUnlockTime {
		return 0, ErrStillLocked
	}
	if account.EnrolledInBonus && now < account.BonusUnlockTime {
		return 0, ErrStillLocked
	}

	amount := account.Amount
	updated := account.Clone()
	updated.Amount = 0
	nextPool := pool.Clone()
	if nextPool.TotalStaked, err = checkedSub(pool.TotalStaked, amount); err != nil {
		return 0, err
	}
	if account.EnrolledInBonus {
		if nextPool.TotalEnrolledStake, err = checkedSub(pool.TotalEnrolledStake, amount); err != nil {
			return 0, err
		}
	}

	if err := e.transfer(pool.Mint, EscrowAddress(), caller, amount); err != nil {
		return 0, err
	}
	if err := e.state.StakeAccountPut(updated); err != nil {
		return 0, err
	}
	if err := e.state.StakingPoolPut(nextPool); err != nil {
		return 0, err
	}
	e.emit(events.Withdrawn{
		Owner:            caller,
		Principal:        amount,
		NodeKeysRetained: updated.NodeKeysEarned,
		Timestamp:        now,
	})
	e.logger.Info("principal withdrawn", "owner", formatAddr(caller), "amount", amount, "node_keys", updated.NodeKeysEarned)
	return amount, nil
}

// WithdrawBonus pays the caller's pro-rata share of the penalty vault. The
// vault is snapshotted by the first claim so every enrolled account divides
// the same total.
func (e *Engine) WithdrawBonus(caller [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	pool, err := e.loadPool()
	if err != nil {
		return 0, err
	}
	account, ok, err := e.state.StakeAccountGet(caller)
	if err != nil {
		return 0, err
	}
	if !ok || !account.EnrolledInBonus {
		return 0, ErrNotEnrolledInBonus
	}
	now := e.now()
	available, err := addSeconds(pool.LatestBonusUnlockTime, e.params.BonusWithdrawalDelay)
	if err != nil {
		return 0, err
	}
	if now < available {
		return 0, ErrBonusWithdrawalNotYetAvailable
	}
	if account.Amount != 0 {
		return 0, ErrMustWithdrawPrincipalFirst
	}
	if account.BonusClaimed {
		return 0, ErrBonusAlreadyClaimed
	}

	nextPool := pool.Clone()
	if !nextPool.BonusSnapshotTaken {
		nextPool.BonusPoolSnapshot = pool.PenaltyVault
		nextPool.BonusSnapshotTaken = true
	}
	share, err := mulDiv(nextPool.BonusPoolSnapshot, account.BonusWeight, nextPool.TotalBonusWeight)
	if err != nil {
		return 0, err
	}
	share = minUint64(share, nextPool.PenaltyVault)
	nextPool.PenaltyVault -= share

	updated := account.Clone()
	updated.BonusClaimed = true

	if err := e.transfer(pool.Mint, EscrowAddress(), caller, share); err != nil {
		return 0, err
	}
	if err := e.state.StakeAccountPut(updated); err != nil {
		return 0, err
	}
	if err := e.state.StakingPoolPut(nextPool); err != nil {
		return 0, err
	}
	e.emit(events.BonusWithdrawn{Owner: caller, Bonus: share, Timestamp: now})
	e.logger.Info("bonus withdrawn", "owner", formatAddr(caller), "bonus", share, "vault", nextPool.PenaltyVault)
	return share, nil
}

// CollectDust sweeps whatever remains in the penalty vault once the claim
// period has elapsed.
func (e *Engine) CollectDust(caller [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	pool, err := e.loadPool()
	if err != nil {
		return 0, err
	}
	if caller != pool.Authority {
		return 0, ErrUnauthorized
	}
	now := e.now()
	open, err := addSeconds(pool.LatestBonusUnlockTime, e.params.BonusWithdrawalDelay)
	if err != nil {
		return 0, err
	}
	if open, err = addSeconds(open, e.params.ClaimPeriod); err != nil {
		return 0, err
	}
	if now < open {
		return 0, ErrBonusClaimPeriodNotExpired
	}
	if pool.PenaltyVault == 0 {
		return 0, ErrNoDustToCollect
	}
	recipient := e.params.DustRecipient
	if recipient == ([20]byte{}) {
		recipient = pool.Authority
	}
	amount := pool.PenaltyVault
	nextPool := pool.Clone()
	nextPool.PenaltyVault = 0

	if err := e.transfer(pool.Mint, EscrowAddress(), recipient, amount); err != nil {
		return 0, err
	}
	if err := e.state.StakingPoolPut(nextPool); err != nil {
		return 0, err
	}
	e.emit(events.DustCollected{Recipient: recipient, Amount: amount, Timestamp: now})
	e.logger.Info("dust collected", "recipient", formatAddr(recipient), "amount", amount)
	return amount, nil
}

// Pool returns the pool singleton.
func (e *Engine) Pool() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadPool()
}

// Account returns the stake account of owner.
func (e *Engine) Account(owner [20]byte) (*Account, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	account, ok, err := e.state.StakeAccountGet(owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStakeAccountNotFound
	}
	return account, nil
}

// StakeInfo returns a read-only view of owner's position evaluated at the
// engine clock.
func (e *Engine) StakeInfo(owner [20]byte) (*StakeInfo, error) {
	pool, err := e.Pool()
	if err != nil {
		return nil, err
	}
	account, err := e.Account(owner)
	if err != nil {
		return nil, err
	}
	now := e.now()
	unlock := account.UnlockTime()
	info := &StakeInfo{
		Owner:               account.Owner,
		Amount:              account.Amount,
		NodeKeysEarned:      account.NodeKeysEarned,
		EnrolledInBonus:     account.EnrolledInBonus,
		PrincipalUnlockTime: account.PrincipalUnlockTime,
		BonusUnlockTime:     account.BonusUnlockTime,
		UnlockTime:          unlock,
		IsUnlocked:          now >= unlock,
	}
	if !info.IsUnlocked {
		info.TimeUntilUnlock = unlock - now
	}
	if account.EnrolledInBonus && !account.BonusClaimed {
		base := pool.PenaltyVault
		if pool.BonusSnapshotTaken {
			base = pool.BonusPoolSnapshot
		}
		if info.PotentialBonus, err = mulDiv(base, account.BonusWeight, pool.TotalBonusWeight); err != nil {
			return nil, err
		}
	}
	return info, nil
}
