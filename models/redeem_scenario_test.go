package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/middlewares"
	"bitbucket.org/mmdatafocus/recycle_backend/models"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/shopspring/decimal"
)

func TestContributionAndRedemptionScenario(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := setupIntegrationEnv(t)

	supplier := registerTestSupplier(t, ctx, "maria.lopez")

	// Wrong password is a credential error, not a server error.
	if _, err := models.Login(ctx, "maria.lopez", "wrong-password"); !errors.Is(err, utils.ErrorUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password; got %v", err)
	}
	// Supplier accounts cannot use the console login.
	if _, err := models.LoginUser(ctx, "maria.lopez", "secret123"); !errors.Is(err, utils.ErrorForbidden) {
		t.Fatalf("expected forbidden for supplier console login; got %v", err)
	}

	// New suppliers start at zero.
	balance, err := models.GetBalance(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero starting balance; got %d", balance)
	}

	// Default conversion rate is 100 points per whole kilo.
	rate, err := models.GetConversionRate(ctx)
	if err != nil {
		t.Fatalf("GetConversionRate: %v", err)
	}
	if rate != models.DefaultConversionRate {
		t.Fatalf("expected default rate %d; got %d", models.DefaultConversionRate, rate)
	}

	// Negative rates are rejected and the stored rate stays put.
	if _, err := models.SetConversionRate(ctx, -1); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("expected validation error for negative rate; got %v", err)
	}
	rate, err = models.GetConversionRate(ctx)
	if err != nil {
		t.Fatalf("GetConversionRate: %v", err)
	}
	if rate != models.DefaultConversionRate {
		t.Fatalf("failed update must not change the rate; got %d", rate)
	}

	// 5 kg at rate 100 credits 500 points.
	record, err := models.RecordContribution(ctx, &models.NewContribution{
		SupplierId: supplier.ID,
		Weight:     decimal.NewFromInt(5),
		Note:       "PET bottles",
	})
	if err != nil {
		t.Fatalf("RecordContribution: %v", err)
	}
	if record.Points != 500 {
		t.Fatalf("expected 500 points credited; got %d", record.Points)
	}
	balance, err = models.GetBalance(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 500 {
		t.Fatalf("expected balance 500 after contribution; got %d", balance)
	}

	// The credit leaves an outbox record in the same transaction.
	db := config.GetDB()
	var outbox models.LoyaltyEventRecord
	if err := db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", models.LoyaltyReferenceTypeContribution, record.ID).
		First(&outbox).Error; err != nil {
		t.Fatalf("expected outbox record for contribution: %v", err)
	}
	if outbox.Points != 500 || outbox.SupplierId != supplier.ID {
		t.Fatalf("outbox record mismatch: %+v", outbox)
	}

	// Weight validation and missing supplier.
	if _, err := models.RecordContribution(ctx, &models.NewContribution{
		SupplierId: supplier.ID,
		Weight:     decimal.Zero,
	}); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("expected validation error for zero weight; got %v", err)
	}
	if _, err := models.RecordContribution(ctx, &models.NewContribution{
		SupplierId: 99999,
		Weight:     decimal.NewFromInt(1),
	}); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not-found for missing supplier; got %v", err)
	}

	bottle, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:           "Thermo Bottle",
		Kind:           models.ProductKindRedeemable,
		PointsRequired: 200,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	soap, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:  "Eco Soap",
		Kind:  models.ProductKindSale,
		Price: decimal.RequireFromString("4.50"),
	})
	if err != nil {
		t.Fatalf("CreateProduct (sale): %v", err)
	}

	// Redeeming a sale-kind product is a validation error, not a crash.
	if _, err := models.Redeem(ctx, &models.NewRedemption{
		SupplierId: supplier.ID,
		ProductId:  soap.ID,
	}); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("expected validation error redeeming sale product; got %v", err)
	}
	if _, err := models.Redeem(ctx, &models.NewRedemption{
		SupplierId: supplier.ID,
		ProductId:  99999,
	}); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not-found for missing product; got %v", err)
	}

	// Two 200-point redemptions succeed, leaving 100.
	for i := 0; i < 2; i++ {
		txn, err := models.Redeem(ctx, &models.NewRedemption{
			SupplierId: supplier.ID,
			ProductId:  bottle.ID,
		})
		if err != nil {
			t.Fatalf("Redeem #%d: %v", i+1, err)
		}
		if txn.PointsSpent != 200 || txn.Kind != models.TransactionKindRedemption {
			t.Fatalf("unexpected redemption txn: %+v", txn)
		}
	}
	balance, err = models.GetBalance(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 100 {
		t.Fatalf("expected balance 100 after two redemptions; got %d", balance)
	}

	// Third redemption is short 100 points.
	if _, err := models.Redeem(ctx, &models.NewRedemption{
		SupplierId: supplier.ID,
		ProductId:  bottle.ID,
	}); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("expected insufficient-points validation error; got %v", err)
	}
	balance, _ = models.GetBalance(ctx, supplier.ID)
	if balance != 100 {
		t.Fatalf("failed redemption must not move points; balance = %d", balance)
	}

	// Listing shows the two redemptions newest first.
	redemptions, err := models.ListSupplierRedemptions(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("ListSupplierRedemptions: %v", err)
	}
	if len(redemptions) != 2 {
		t.Fatalf("expected 2 redemptions; got %d", len(redemptions))
	}

	// Listing enrichment batches supplier and product lookups.
	loaderCtx := middlewares.WithLoaders(ctx, middlewares.NewLoaders(config.GetDB()))
	suppliers, errs := middlewares.GetSuppliers(loaderCtx, []int{supplier.ID})
	for _, lerr := range errs {
		if lerr != nil {
			t.Fatalf("supplier loader: %v", lerr)
		}
	}
	if len(suppliers) != 1 || suppliers[0].Name != "Test" {
		t.Fatalf("unexpected supplier loader result: %+v", suppliers)
	}
	products, errs := middlewares.GetProducts(loaderCtx, []int{bottle.ID, soap.ID})
	for _, lerr := range errs {
		if lerr != nil {
			t.Fatalf("product loader: %v", lerr)
		}
	}
	if len(products) != 2 || products[0].ID != bottle.ID || products[1].ID != soap.ID {
		t.Fatalf("unexpected product loader result: %+v", products)
	}

	// Monthly aggregation sees the 5 kg.
	months, err := models.KilosByMonth(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("KilosByMonth: %v", err)
	}
	if len(months) != 1 || months[0].TotalWeight.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("unexpected monthly kilos: %+v", months)
	}
}

func TestConcurrentRedemptionsDebitExactlyOnce(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := setupIntegrationEnv(t)

	supplier := registerTestSupplier(t, ctx, "jose.quispe")

	if _, err := models.RecordContribution(ctx, &models.NewContribution{
		SupplierId: supplier.ID,
		Weight:     decimal.NewFromInt(3),
	}); err != nil {
		t.Fatalf("RecordContribution: %v", err)
	}

	// 300 points on hand, the product costs 300: only one of the
	// concurrent redemptions may win.
	prize, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:           "Grocery Voucher",
		Kind:           models.ProductKindRedeemable,
		PointsRequired: 300,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = models.Redeem(ctx, &models.NewRedemption{
				SupplierId: supplier.ID,
				ProductId:  prize.ID,
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, utils.ErrorValidation) {
			t.Fatalf("worker %d failed with unexpected error: %v", i, err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful redemption; got %d", successes)
	}

	balance, err := models.GetBalance(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0 after the single win; got %d", balance)
	}

	var count int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&models.Transaction{}).
		Where("supplier_id = ? AND product_id = ?", supplier.ID, prize.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one transaction row; got %d", count)
	}
}

// setupIntegrationEnv boots throwaway redis+mysql containers, wires env,
// connects, and migrates. Each test gets a fresh database.
func setupIntegrationEnv(t *testing.T) context.Context {
	t.Helper()
	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "recicla_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")
	return ctx
}

func registerTestSupplier(t *testing.T, ctx context.Context, username string) *models.Supplier {
	t.Helper()
	supplier, err := models.RegisterSupplier(ctx, &models.NewSupplier{
		Username: username,
		Password: "secret123",
		Name:     "Test",
		LastName: "Supplier",
		Dni:      fmt.Sprintf("%08d", time.Now().UnixNano()%100000000),
	})
	if err != nil {
		t.Fatalf("RegisterSupplier: %v", err)
	}
	return supplier
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("recicla-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("recicla-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=recicla_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
