package routes

import (
	"clipshare/auth"
	"clipshare/feed"
	"clipshare/middleware"
	"clipshare/notifications"
	"clipshare/profile"
	"clipshare/ratelim"
	"clipshare/settings"

	"github.com/julienschmidt/httprouter"
)

// Deps carries every handler set the router exposes.
type Deps struct {
	Verifier      middleware.Verifier
	RateLimiter   *ratelim.RateLimiter
	Auth          *auth.Handlers
	Profile       *profile.Handlers
	Feed          *feed.Handlers
	Notifications *notifications.Handlers
	Settings      *settings.Service
}

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddAuthRoutes(router, d)
	AddProfileRoutes(router, d)
	AddFeedRoutes(router, d)
	AddNotificationRoutes(router, d)
	AddSettingsRoutes(router, d)
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	authn := middleware.Authenticate(d.Verifier)
	router.POST("/api/auth/signup", d.RateLimiter.Limit(d.Auth.SignUp))
	router.POST("/api/auth/signin", d.RateLimiter.Limit(d.Auth.SignIn))
	router.POST("/api/auth/signout", authn(d.Auth.SignOut))
}

func AddProfileRoutes(router *httprouter.Router, d Deps) {
	authn := middleware.Authenticate(d.Verifier)
	optional := middleware.OptionalAuth(d.Verifier)

	router.GET("/api/users/:username", optional(d.Profile.GetUserProfile))
	router.GET("/api/users/:username/posts", optional(d.Profile.GetUserPosts))
	router.GET("/api/users/:username/picture", d.Profile.PictureRedirect)
	router.GET("/api/users/:username/relationships/:type", d.Profile.GetRelationships)
	router.GET("/api/users/:username/relationships/:type/contains-me", authn(d.Profile.ContainsMe))
	router.PUT("/api/users/:username/follow", authn(d.Profile.Follow))
	router.DELETE("/api/users/:username/follow", authn(d.Profile.Unfollow))
	router.POST("/api/profile/picture", authn(d.Profile.UploadProfilePicture))
}

func AddFeedRoutes(router *httprouter.Router, d Deps) {
	authn := middleware.Authenticate(d.Verifier)

	router.POST("/api/posts", authn(d.Feed.CreatePost))
	router.GET("/api/posts/:owner/:postid/video", d.Feed.GetVideoURL)
	router.POST("/api/posts/:owner/:postid/like", authn(d.Feed.Like))
	router.DELETE("/api/posts/:owner/:postid/like", authn(d.Feed.Unlike))
	router.GET("/api/posts/:owner/:postid/comments", d.Feed.GetComments)
	router.POST("/api/posts/:owner/:postid/comments", authn(d.Feed.AddComment))
}

func AddNotificationRoutes(router *httprouter.Router, d Deps) {
	authn := middleware.Authenticate(d.Verifier)
	router.GET("/api/notifications", authn(d.Notifications.GetNotifications))
	router.POST("/api/notifications/:id/hide", authn(d.Notifications.Hide))
}

func AddSettingsRoutes(router *httprouter.Router, d Deps) {
	authn := middleware.Authenticate(d.Verifier)
	router.GET("/api/settings", authn(d.Settings.GetUserSettings))
	router.PUT("/api/settings/:type", authn(d.Settings.UpdateUserSetting))
}
