package attitude

import "github.com/golang/geo/r3"

// AngularVelocity contains angular velocity in rad/s across x/y/z axes, where
// x is the roll rate, y the pitch rate, and z the yaw rate.
type AngularVelocity r3.Vector
