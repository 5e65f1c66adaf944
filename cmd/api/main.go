package main

import (
	"time"

	"github.com/alittlebroken/ecommerce/internal/config"
	"github.com/alittlebroken/ecommerce/internal/domain/model"
	"github.com/alittlebroken/ecommerce/internal/handler"
	"github.com/alittlebroken/ecommerce/internal/infra/db"
	"github.com/alittlebroken/ecommerce/internal/infra/googleauth"
	infraRepo "github.com/alittlebroken/ecommerce/internal/infra/repository"
	"github.com/alittlebroken/ecommerce/internal/payment"
	"github.com/alittlebroken/ecommerce/internal/server"
	"github.com/alittlebroken/ecommerce/internal/usecase"
	auth "github.com/alittlebroken/ecommerce/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envは無くても可（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	defer db.Close(gormDB)

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Category{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.WebhookEvent{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: 15 * time.Minute,
	}

	//外部IDトークン検証（Google）
	googleVerifier := googleauth.NewVerifier(10 * time.Second)

	//決済ゲートウェイ
	gateway := payment.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayTimeout)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	googleUC := auth.NewGoogleLoginUsecase(userRepo, googleVerifier, issuer, clock)

	userUC := usecase.NewUserUsecase(userRepo)
	productUC := usecase.NewProductUsecase(productRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, productRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager)
	checkoutUC := usecase.NewCheckoutUsecase(cartRepo, cartItemRepo, productRepo, gateway, cfg.Currency, cfg.ClientURL)
	fulfillmentUC := usecase.NewFulfillmentUsecase(txManager, clock, logger)

	//Handler生成
	handlers := server.Handlers{
		Auth:        handler.NewAuthHandler(registerUC, loginUC, googleUC),
		User:        handler.NewUserHandler(userUC),
		Product:     handler.NewProductHandler(productUC),
		Category:    handler.NewCategoryHandler(categoryUC),
		Cart:        handler.NewCartHandler(cartUC),
		Order:       handler.NewOrderHandler(orderUC),
		Checkout:    handler.NewCheckoutHandler(checkoutUC),
		Fulfillment: handler.NewFulfillmentHandler(fulfillmentUC, cfg.GatewayEndpointSecret),
	}

	//Server起動
	e := server.New(cfg, logger, handlers)
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
