package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	"github.com/angelmondragon/paygmeter-backend/pkg/encoder"
	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
)

type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return f.err
}

type fakeRepository struct {
	item      *models.Item
	totalPaid decimal.Decimal

	payments  []*models.Payment
	credits   []decimal.Decimal
	debits    []decimal.Decimal
	statuses  []enums.ItemStatus
	codes     []*models.GeneratedCode
	messages  map[string]*models.PaymentMessage
	tokenUpds []EncoderTokenUpdate

	findErr  error
	debitErr error
}

func newFakeRepository(item *models.Item, totalPaid decimal.Decimal) *fakeRepository {
	return &fakeRepository{
		item:      item,
		totalPaid: totalPaid,
		messages:  map[string]*models.PaymentMessage{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindItemForUpdate(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.item == nil || f.item.ID != itemID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return f.item, nil
}

func (f *fakeRepository) SumPaid(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	return f.totalPaid, nil
}

func (f *fakeRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	f.payments = append(f.payments, payment)
	return nil
}

func (f *fakeRepository) CreditBalance(ctx context.Context, itemID uuid.UUID, amount decimal.Decimal) error {
	f.credits = append(f.credits, amount)
	return nil
}

func (f *fakeRepository) DebitBalance(ctx context.Context, itemID uuid.UUID, amount decimal.Decimal) error {
	if f.debitErr != nil {
		return f.debitErr
	}
	f.debits = append(f.debits, amount)
	return nil
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, itemID uuid.UUID, status enums.ItemStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeRepository) UpdateEncoderToken(ctx context.Context, stateID uuid.UUID, update EncoderTokenUpdate) error {
	f.tokenUpds = append(f.tokenUpds, update)
	return nil
}

func (f *fakeRepository) FirstOrCreateMessage(ctx context.Context, text string) (*models.PaymentMessage, error) {
	if existing, ok := f.messages[text]; ok {
		return existing, nil
	}
	message := &models.PaymentMessage{ID: uuid.New(), Message: text}
	f.messages[text] = message
	return message, nil
}

func (f *fakeRepository) CreateGeneratedCode(ctx context.Context, code *models.GeneratedCode) error {
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Payment, error) {
	out := make([]models.Payment, 0, len(f.payments))
	for _, p := range f.payments {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepository) ListCodesByItem(ctx context.Context, itemID uuid.UUID) ([]models.GeneratedCode, error) {
	out := make([]models.GeneratedCode, 0, len(f.codes))
	for _, c := range f.codes {
		out = append(out, *c)
	}
	return out, nil
}

type fakeMinter struct {
	resp  *encoder.GenerateResponse
	err   error
	calls []encoder.GenerateRequest
}

func (f *fakeMinter) Generate(ctx context.Context, req encoder.GenerateRequest) (*encoder.GenerateResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &encoder.GenerateResponse{
		Token:      "123456789",
		TokenType:  req.TokenType,
		TokenValue: req.TokenValue,
		MaxCount:   req.MaxCount + 1,
	}, nil
}

func testItem(balance int64, plan *models.PaymentPlan) *models.Item {
	item := &models.Item{
		ID:      uuid.New(),
		Balance: decimal.NewFromInt(balance),
		Status:  enums.ItemStatusPending,
	}
	if plan != nil {
		plan.ID = uuid.New()
		item.PaymentPlan = plan
		item.PaymentPlanID = &plan.ID
	}
	item.EncoderState = &models.EncoderState{
		ID:           uuid.New(),
		ItemID:       item.ID,
		SecretKey:    "deadbeef",
		StartingCode: "1000",
		MaxCount:     3,
	}
	return item
}

func newTestService(t *testing.T, repo Repository, minter tokenMinter) Service {
	t.Helper()
	svc, err := NewService(&fakeTxRunner{}, repo, minter, nil, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestSubmitPayment_Validation(t *testing.T) {
	svc := newTestService(t, newFakeRepository(nil, decimal.Zero), &fakeMinter{})

	if _, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		Amount: decimal.NewFromInt(10),
	}); err == nil {
		t.Fatal("expected error for missing item id")
	}

	if _, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: uuid.New(),
		Amount: decimal.Zero,
	}); err == nil {
		t.Fatal("expected error for zero amount")
	}

	if _, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: uuid.New(),
		Amount: decimal.NewFromInt(-5),
	}); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestSubmitPayment_IntervalGrant(t *testing.T) {
	item := testItem(0, dailyPlan(100, 20))
	repo := newFakeRepository(item, decimal.Zero)
	minter := &fakeMinter{}
	svc := newTestService(t, repo, minter)

	outcome, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: item.ID,
		Amount: decimal.NewFromInt(45),
	})
	if err != nil {
		t.Fatalf("SubmitPayment error: %v", err)
	}

	if outcome.Decision != DecisionIntervalEligible {
		t.Fatalf("expected interval_eligible, got %s", outcome.Decision)
	}
	if !outcome.CurrentBalance.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected balance 5, got %s", outcome.CurrentBalance)
	}
	if !outcome.Days.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected 2 days, got %s", outcome.Days)
	}
	if outcome.Status != enums.ItemStatusPartiallyPaid {
		t.Fatalf("expected partially_paid, got %s", outcome.Status)
	}
	if outcome.Token == "" || outcome.IsCompletion {
		t.Fatalf("expected non-completion token, got %+v", outcome)
	}

	if len(repo.payments) != 1 || !repo.payments[0].AmountPaid.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("payment not recorded: %+v", repo.payments)
	}
	if len(repo.debits) != 1 || !repo.debits[0].Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected debit of 40, got %v", repo.debits)
	}
	if len(repo.codes) != 1 || repo.codes[0].TokenType != enums.TokenTypeAddTime {
		t.Fatalf("expected one ADD_TIME code, got %+v", repo.codes)
	}
	if len(minter.calls) != 1 {
		t.Fatalf("expected one mint call, got %d", len(minter.calls))
	}
	if minter.calls[0].SecretKey != "deadbeef" || minter.calls[0].StartingCode != "1000" {
		t.Fatalf("mint call missing device secrets: %+v", minter.calls[0])
	}
	if len(repo.tokenUpds) != 1 || repo.tokenUpds[0].MaxCount != 4 {
		t.Fatalf("encoder state not updated from response: %+v", repo.tokenUpds)
	}
}

func TestSubmitPayment_Completion(t *testing.T) {
	item := testItem(5, dailyPlan(100, 20))
	repo := newFakeRepository(item, decimal.NewFromInt(90))
	minter := &fakeMinter{}
	svc := newTestService(t, repo, minter)

	outcome, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: item.ID,
		Amount: decimal.NewFromInt(15),
	})
	if err != nil {
		t.Fatalf("SubmitPayment error: %v", err)
	}

	if outcome.Decision != DecisionCompletesNow || !outcome.IsCompletion {
		t.Fatalf("expected completion, got %+v", outcome)
	}
	if !outcome.CurrentBalance.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("completion must not debit balance, got %s", outcome.CurrentBalance)
	}
	if outcome.Status != enums.ItemStatusFullyPaid {
		t.Fatalf("expected fully_paid, got %s", outcome.Status)
	}
	if outcome.TokenType != enums.TokenTypeDisablePAYG {
		t.Fatalf("expected DISABLE_PAYG, got %s", outcome.TokenType)
	}
	if len(repo.debits) != 0 {
		t.Fatalf("no debit expected on completion, got %v", repo.debits)
	}
	if _, ok := repo.messages[completionMessage]; !ok {
		t.Fatalf("completion message not recorded: %v", repo.messages)
	}
}

func TestSubmitPayment_AlreadyCompleteIsTerminal(t *testing.T) {
	item := testItem(20, dailyPlan(100, 20))
	item.Status = enums.ItemStatusFullyPaid
	repo := newFakeRepository(item, decimal.NewFromInt(105))
	minter := &fakeMinter{}
	svc := newTestService(t, repo, minter)

	outcome, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: item.ID,
		Amount: decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("SubmitPayment error: %v", err)
	}

	if outcome.Decision != DecisionAlreadyComplete {
		t.Fatalf("expected already_complete, got %s", outcome.Decision)
	}
	if len(minter.calls) != 0 {
		t.Fatal("completed plans must never mint again")
	}
	if len(repo.payments) != 1 {
		t.Fatal("payment must still be recorded after completion")
	}
	if len(repo.codes) != 0 {
		t.Fatalf("no code expected, got %+v", repo.codes)
	}
}

func TestSubmitPayment_NoPlanAccumulates(t *testing.T) {
	item := testItem(30, nil)
	repo := newFakeRepository(item, decimal.NewFromInt(30))
	minter := &fakeMinter{}
	svc := newTestService(t, repo, minter)

	outcome, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: item.ID,
		Amount: decimal.NewFromInt(25),
	})
	if err != nil {
		t.Fatalf("SubmitPayment error: %v", err)
	}

	if outcome.Decision != DecisionNoPlan {
		t.Fatalf("expected no_plan, got %s", outcome.Decision)
	}
	if !outcome.CurrentBalance.Equal(decimal.NewFromInt(55)) {
		t.Fatalf("expected balance 55, got %s", outcome.CurrentBalance)
	}
	if len(minter.calls) != 0 || len(repo.codes) != 0 {
		t.Fatal("no token activity expected without a plan")
	}
	if len(repo.payments) != 1 {
		t.Fatal("payment must be recorded without a plan")
	}
}

func TestSubmitPayment_Insufficient(t *testing.T) {
	item := testItem(0, dailyPlan(100, 20))
	repo := newFakeRepository(item, decimal.Zero)
	minter := &fakeMinter{}
	svc := newTestService(t, repo, minter)

	outcome, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: item.ID,
		Amount: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("SubmitPayment error: %v", err)
	}

	if outcome.Decision != DecisionInsufficient {
		t.Fatalf("expected insufficient, got %s", outcome.Decision)
	}
	if !outcome.CurrentBalance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected balance 10, got %s", outcome.CurrentBalance)
	}
	if outcome.Status != enums.ItemStatusPartiallyPaid {
		t.Fatalf("expected partially_paid, got %s", outcome.Status)
	}
	if len(minter.calls) != 0 || len(repo.debits) != 0 {
		t.Fatal("insufficient balance must not debit or mint")
	}
}

func TestSubmitPayment_GatewayFailurePropagates(t *testing.T) {
	item := testItem(0, dailyPlan(100, 20))
	repo := newFakeRepository(item, decimal.Zero)
	minter := &fakeMinter{err: pkgerrors.New(pkgerrors.CodeDependency, "encoder unavailable")}
	svc := newTestService(t, repo, minter)

	_, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: item.ID,
		Amount: decimal.NewFromInt(45),
	})
	if err == nil {
		t.Fatal("expected gateway error to propagate")
	}

	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(repo.codes) != 0 {
		t.Fatal("no code may exist for a failed mint")
	}
}

func TestSubmitPayment_MissingEncoderState(t *testing.T) {
	item := testItem(0, dailyPlan(100, 20))
	item.EncoderState = nil
	repo := newFakeRepository(item, decimal.Zero)
	svc := newTestService(t, repo, &fakeMinter{})

	_, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: item.ID,
		Amount: decimal.NewFromInt(45),
	})
	if err == nil {
		t.Fatal("expected error for missing encoder state")
	}

	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSubmitPayment_UnknownItem(t *testing.T) {
	repo := newFakeRepository(nil, decimal.Zero)
	svc := newTestService(t, repo, &fakeMinter{})

	_, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: uuid.New(),
		Amount: decimal.NewFromInt(10),
	})

	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmitPayment_DebitConflictBubblesUp(t *testing.T) {
	item := testItem(0, dailyPlan(100, 20))
	repo := newFakeRepository(item, decimal.Zero)
	repo.debitErr = pkgerrors.New(pkgerrors.CodeConflict, "item balance changed concurrently")
	minter := &fakeMinter{}
	svc := newTestService(t, repo, minter)

	_, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
		ItemID: item.ID,
		Amount: decimal.NewFromInt(45),
	})

	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(minter.calls) != 0 {
		t.Fatal("mint must not run after a failed debit")
	}
}

func TestSubmitPayment_RepeatedGrantsReuseMessage(t *testing.T) {
	item := testItem(0, dailyPlan(1000, 20))
	repo := newFakeRepository(item, decimal.Zero)
	minter := &fakeMinter{}
	svc := newTestService(t, repo, minter)

	for i := 0; i < 2; i++ {
		item.Balance = decimal.Zero
		if _, err := svc.SubmitPayment(context.Background(), SubmitPaymentInput{
			ItemID: item.ID,
			Amount: decimal.NewFromInt(20),
		}); err != nil {
			t.Fatalf("SubmitPayment error: %v", err)
		}
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected one deduplicated message, got %d", len(repo.messages))
	}
	if len(repo.codes) != 2 {
		t.Fatalf("expected two codes, got %d", len(repo.codes))
	}
	if repo.codes[0].PaymentMessageID != repo.codes[1].PaymentMessageID {
		t.Fatal("both codes must reference the same message")
	}
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	repo := newFakeRepository(nil, decimal.Zero)
	if _, err := NewService(nil, repo, &fakeMinter{}, nil, nil); err == nil {
		t.Fatal("expected error for missing tx runner")
	}
	if _, err := NewService(&fakeTxRunner{}, nil, &fakeMinter{}, nil, nil); err == nil {
		t.Fatal("expected error for missing repository")
	}
	if _, err := NewService(&fakeTxRunner{}, repo, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing minter")
	}
}
