package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	accountapp "github.com/umaimono-club/store-directory/api/internal/account/application"
	accountdomain "github.com/umaimono-club/store-directory/api/internal/account/domain"
	catalogapp "github.com/umaimono-club/store-directory/api/internal/catalog/application"
	"github.com/umaimono-club/store-directory/api/internal/config"
	mongodoc "github.com/umaimono-club/store-directory/api/internal/infrastructure/mongo"
	"github.com/umaimono-club/store-directory/api/internal/infrastructure/storage"
	accounthttp "github.com/umaimono-club/store-directory/api/internal/interfaces/http/account"
	cataloghttp "github.com/umaimono-club/store-directory/api/internal/interfaces/http/catalog"
	commonhttp "github.com/umaimono-club/store-directory/api/internal/interfaces/http/common"
)

// Server は HTTP サーバーのライフサイクルを管理し、catalog/account の
// 各ハンドラへ依存注入するコンポジションルート。アプリケーションサービスを
// ルータへ接続する責務のみを持ち、ドメインロジックはここに書かない。
type Server struct {
	logger           *log.Logger
	client           *mongo.Client
	database         *mongo.Database
	storeCollection  string
	reviewCollection string
	userCollection   string
	storeService     catalogapp.StoreService
	storeQueries     catalogapp.StoreQueryService
	reviewService    catalogapp.ReviewService
	accountService   accountapp.AccountService
	jwtConfigs       []config.JWTConfig
	jwtAudience      string
	tokenTTL         time.Duration
	addr             string
	allowedOrigins   []string
}

type authenticatedUser = commonhttp.AuthenticatedUser

// New は Config と Mongo クライアントを受け取り、リポジトリ・サービス・
// ハンドラを組み立てた Server を返す。依存解決の起点となるファクトリ。
func New(cfg config.Config, client *mongo.Client) (*Server, error) {
	database := client.Database(cfg.MongoDatabase)

	photoStore, err := storage.NewLocalPhotoStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	storeRepo := mongodoc.NewStoreRepository(database, cfg.StoreCollection, cfg.ReviewCollection, cfg.UserCollection)
	reviewRepo := mongodoc.NewReviewRepository(database, cfg.ReviewCollection)
	userRepo := mongodoc.NewUserRepository(database, cfg.UserCollection)

	photoService := catalogapp.NewPhotoService(photoStore)

	srv := &Server{
		logger:           cfg.ServerLog,
		client:           client,
		database:         database,
		storeCollection:  cfg.StoreCollection,
		reviewCollection: cfg.ReviewCollection,
		userCollection:   cfg.UserCollection,
		storeService:     catalogapp.NewStoreService(storeRepo, photoService),
		storeQueries:     catalogapp.NewStoreQueryService(storeRepo),
		reviewService:    catalogapp.NewReviewService(storeRepo, reviewRepo),
		accountService:   accountapp.NewAccountService(userRepo),
		jwtConfigs:       append([]config.JWTConfig(nil), cfg.JWTConfigs...),
		jwtAudience:      cfg.JWTAudience,
		tokenTTL:         cfg.TokenTTL,
		addr:             cfg.Addr,
		allowedOrigins:   append([]string(nil), cfg.AllowedOrigins...),
	}
	return srv, nil
}

// Run はインデックスを整えた上で HTTP サーバーを起動し、ルーティングと
// ミドルウェアを組み立てる。
func (s *Server) Run() error {
	if err := s.ensureIndexes(context.Background()); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())

	catalogHandler := cataloghttp.NewHandler(cataloghttp.Config{
		Logger:  s.logger,
		Stores:  s.storeService,
		Queries: s.storeQueries,
		Reviews: s.reviewService,
	})
	catalogHandler.Register(router, s.authMiddleware)

	accountHandler := accounthttp.NewHandler(accounthttp.Config{
		Logger:   s.logger,
		Accounts: s.accountService,
		Stores:   s.storeQueries,
		Tokens:   s,
	})
	accountHandler.Register(router, s.authMiddleware)

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	waitForShutdown(httpServer, errChan, s)
	return nil
}

// ensureIndexes はテキスト/2dsphere/ユニーク各インデックスを起動時に揃える。
func (s *Server) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return mongodoc.EnsureIndexes(ctx, s.database, s.storeCollection, s.reviewCollection, s.userCollection)
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler は MongoDB への疎通確認を行い、監視系からのヘルスチェック要求に応える。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// authMiddleware は Authorization ヘッダーから JWT を検証し、認証済み
// ユーザーをコンテキストへ詰める。catalog/account 双方で利用する。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization ヘッダーがありません"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Bearer トークンを指定してください"})
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "アクセストークンが空です"})
			return
		}

		claims, err := s.parseAuthToken(tokenString)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		user := authenticatedUser{
			ID:    claims.Subject,
			Name:  claims.Name,
			Email: claims.Email,
		}

		ctx := commonhttp.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseAuthToken は設定済みの JWT 構成を順番に試し、署名検証と
// Issuer/Audience の整合性を確認する。
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if len(s.jwtConfigs) == 0 {
		return nil, fmt.Errorf("認証設定が構成されていません")
	}

	for _, cfg := range s.jwtConfigs {
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return cfg.Secret, nil
		}, jwt.WithLeeway(30*time.Second))

		if err != nil || !token.Valid {
			continue
		}

		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			continue
		}

		now := time.Now()
		if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time) {
			continue
		}
		if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
			continue
		}
		if claims.Subject == "" {
			continue
		}
		if s.jwtAudience != "" && !contains(claims.Audience, s.jwtAudience) {
			continue
		}

		return claims, nil
	}

	return nil, fmt.Errorf("アクセストークンが無効です")
}

// Issue はログイン済みアカウントへ HS256 のアクセストークンを発行する。
// account ハンドラの TokenIssuer として注入される。
func (s *Server) Issue(user *accountdomain.User) (string, time.Time, error) {
	if len(s.jwtConfigs) == 0 {
		return "", time.Time{}, fmt.Errorf("認証設定が構成されていません")
	}
	cfg := s.jwtConfigs[0]

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name:  user.Name,
		Email: user.Email,
	}
	if s.jwtAudience != "" {
		claims.Audience = jwt.ClaimStrings{s.jwtAudience}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// contains は Audience 等の検証で利用する単純な包含チェック。
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

type authClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// writeJSON は JSON レスポンスの共通書き込み処理。
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("JSON エンコードに失敗: %v", err)
	}
}

// shutdown は MongoDB クライアントをタイムアウト付きで切断し、プロセス終了時のリソースリークを防ぐ。
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("MongoDB 切断時にエラー: %v", err)
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Fatalf("サーバーが異常終了: %v", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}

	srv.shutdown(context.Background())
}
