package unit

import "github.com/rtsforge/sagecore/internal/entity"

// RegisterAll binds every built-in module kind into the registry. Called once
// at startup; plugins with their own kinds register after this.
func RegisterAll(r *entity.Registry) {
	r.Register("body", NewBody)
	r.Register("regen", NewRegen)
	r.Register("lifespan", NewLifespan)
	r.Register("wander", NewWander)
	r.Register("sprite", NewSprite)
}
