package routes

// Routes package cung cấp tất cả routing functions cho VBDLIS Normalizer Service
//
// Cấu trúc:
// - api.go: API routes (/v1/*), health và /metrics
// - web.go: Web routes (/, /docs)
//
// Sử dụng:
// routes.SetupMiddleware(router)
// routes.SetupAllRoutes(router, routes.Controllers{...})
