// Package lunarlander provides an implementation of the Lunar Lander
// environment on top of the Box2D physics engine.
package lunarlander

import (
	"fmt"
	"image/color"
	"math"

	"golang.org/x/exp/rand"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
	"github.com/samuelfneumann/locopg/environment"
	ts "github.com/samuelfneumann/locopg/timestep"
	"github.com/samuelfneumann/locopg/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	FPS float64 = 50

	// Scale converts pixels to Box2D world units
	Scale float64 = 30.0

	XGravity float64 = 0.0
	YGravity float64 = -10.0

	MainEnginePower float64 = 13.0
	SideEnginePower float64 = 0.6

	LegAway         float64 = 20.0
	LegDown         float64 = 18.0
	LegW            float64 = 2.0
	LegH            float64 = 8.0
	LegSpringTorque float64 = 40.0

	SideEngineHeight float64 = 14.0
	SideEngineAway   float64 = 12.0

	Chunks int = 11

	ViewportW float64 = 600
	ViewportH float64 = 400

	// CeilingScale places the ceiling wall at this multiple of the
	// viewport height
	CeilingScale float64 = 2.0

	StateObservations int     = 8
	MinAngle          float64 = -math.Pi
	MaxAngle          float64 = math.Pi

	// Box2D limits velocity to 2 units per timestep
	MaxVelocity float64 = 2.0 / (1.0 / FPS)
	MinVelocity float64 = -MaxVelocity

	// Default starting values
	InitialX      float64 = (ViewportW / Scale / 2)
	InitialY      float64 = ((ViewportH - ViewportH/25) / Scale)
	InitialRandom float64 = 1000.0
)

// LanderPoly outlines the lander body in pixels
var LanderPoly [][]float64 = [][]float64{
	{-14, 17},
	{-17, 0},
	{-17, -10},
	{17, -10},
	{17, 0},
	{14, 17},
}

// worldToPixel converts Box2D world coordinates to image coordinates
func worldToPixel(x, y float64) (float64, float64) {
	return Scale * x, ViewportH - Scale*y
}

// DefaultStarter returns the Starter of the classic Lunar Lander: a
// fixed start position at the top centre of the viewport with a random
// initial force of magnitude at most InitialRandom.
func DefaultStarter(seed uint64) environment.Starter {
	return environment.NewUniformStarter([]r1.Interval{
		{Min: InitialX, Max: InitialX},
		{Min: InitialY, Max: InitialY},
		{Min: InitialRandom, Max: InitialRandom},
	}, seed)
}

// contactDetector tracks contacts of the lander body and legs with
// the moon
type contactDetector struct {
	env *lander
}

func (c *contactDetector) touches(contact box2d.B2ContactInterface,
	body *box2d.B2Body) bool {
	return body == contact.GetFixtureA().GetBody() ||
		body == contact.GetFixtureB().GetBody()
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	// The ship should be landed gently, any contact of the body with
	// the ground ends the game
	if c.touches(contact, c.env.body) {
		c.env.gameOver = true
	}
	for i, leg := range c.env.legs {
		if c.touches(contact, leg) {
			c.env.legContact[i] = true
		}
	}
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {
	for i, leg := range c.env.legs {
		if c.touches(contact, leg) {
			c.env.legContact[i] = false
		}
	}
}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}

// lander implements the physics shared by the continuous and discrete
// action versions of Lunar Lander. Actions applied to a lander are
// always 2-dimensional: main engine throttle and side engine throttle.
type lander struct {
	task *Land

	world box2d.B2World

	boundary     []*box2d.B2Body
	moon         *box2d.B2Body
	moonVertices [][2]float64
	body         *box2d.B2Body
	legs         []*box2d.B2Body
	legContact   [2]bool

	helipadX1 float64
	helipadX2 float64
	helipadY  float64

	gameOver bool
	terrain  distuv.Uniform
	noise    distuv.Uniform

	xBounds r1.Interval
	yBounds r1.Interval

	discount float64
	current  ts.TimeStep
	mPower   float64
	sPower   float64
}

func newLander(task *Land, discount float64, seed uint64) (*lander, error) {
	if task == nil {
		return nil, fmt.Errorf("newLander: task must not be nil")
	}

	src := rand.NewSource(seed)
	l := &lander{
		task:     task,
		world:    box2d.MakeB2World(box2d.MakeB2Vec2(XGravity, YGravity)),
		terrain:  distuv.Uniform{Min: 0, Max: ViewportH / Scale / 2, Src: src},
		noise:    distuv.Uniform{Min: -1, Max: 1, Src: src},
		discount: discount,
		xBounds: r1.Interval{
			Min: 0.05 * ViewportW / Scale,
			Max: 0.95 * ViewportW / Scale,
		},
		yBounds: r1.Interval{Min: ViewportH / Scale / 2, Max: InitialY},
	}
	return l, nil
}

// destroy removes all bodies from the world
func (l *lander) destroy() {
	if l.moon == nil {
		return
	}
	l.world.SetContactListener(nil)

	l.world.DestroyBody(l.moon)
	l.moon = nil

	l.world.DestroyBody(l.body)
	l.body = nil

	for _, leg := range l.legs {
		l.world.DestroyBody(leg)
	}
	for _, bound := range l.boundary {
		l.world.DestroyBody(bound)
	}
}

// Reset begins a new episode
func (l *lander) Reset() (ts.TimeStep, error) {
	l.destroy()
	l.world.SetContactListener(&contactDetector{l})
	l.gameOver = false
	l.current = ts.TimeStep{}
	l.mPower = 0.0
	l.sPower = 0.0
	l.task.reset()

	start := l.task.Start()
	if err := l.validateStart(start); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	W := ViewportW / Scale
	H := ViewportH / Scale

	// Walls around the viewport. The ceiling is raised well above the
	// spawn point so that a freshly spawned lander never touches it.
	corners := [][2]float64{{0, 0}, {0, CeilingScale * H},
		{W, CeilingScale * H}, {W, 0}}
	l.boundary = make([]*box2d.B2Body, len(corners))
	for i := range corners {
		next := corners[(i+1)%len(corners)]
		boundsDef := box2d.NewB2BodyDef()
		boundsDef.Type = 0
		l.boundary[i] = l.world.CreateBody(boundsDef)

		boundsShape := box2d.NewB2EdgeShape()
		boundsShape.Set(box2d.MakeB2Vec2(corners[i][0], corners[i][1]),
			box2d.MakeB2Vec2(next[0], next[1]))
		boundsFix := box2d.MakeB2FixtureDef()
		boundsFix.Shape = boundsShape
		l.boundary[i].CreateFixtureFromDef(&boundsFix)
	}

	// Terrain
	height := make([]float64, Chunks+1)
	for i := range height {
		height[i] = l.terrain.Rand()
	}
	chunkX := make([]float64, Chunks)
	for i := range chunkX {
		chunkX[i] = float64(i) * (W / float64(Chunks-1))
	}

	l.helipadX1 = chunkX[Chunks/2-1]
	l.helipadX2 = chunkX[Chunks/2+1]
	l.helipadY = H / 4
	for i := Chunks/2 - 2; i <= Chunks/2+2; i++ {
		height[i] = l.helipadY
	}

	smoothY := make([]float64, Chunks)
	for i := range smoothY {
		prev := Chunks
		if i > 0 {
			prev = i - 1
		}
		smoothY[i] = 0.33 * (height[prev] + height[i] + height[i+1])
	}

	moonDef := box2d.NewB2BodyDef()
	moonDef.Type = 0
	l.moon = l.world.CreateBody(moonDef)

	moonShape := box2d.NewB2EdgeShape()
	moonShape.Set(box2d.MakeB2Vec2(0.0, 0.0), box2d.MakeB2Vec2(W, 0.0))
	moonFixture := box2d.MakeB2FixtureDef()
	moonFixture.Shape = moonShape
	l.moon.CreateFixtureFromDef(&moonFixture)

	l.moonVertices = make([][2]float64, 0, 2*(Chunks-1))
	for i := 0; i < Chunks-1; i++ {
		p1 := [2]float64{chunkX[i], smoothY[i]}
		p2 := [2]float64{chunkX[i+1], smoothY[i+1]}
		l.moonVertices = append(l.moonVertices, p1, p2)

		edge := box2d.NewB2EdgeShape()
		edge.Set(box2d.MakeB2Vec2(p1[0], p1[1]), box2d.MakeB2Vec2(p2[0], p2[1]))

		edgeFixture := box2d.MakeB2FixtureDef()
		edgeFixture.Shape = edge
		edgeFixture.Density = 0.0
		edgeFixture.Friction = 0.1
		l.moon.CreateFixtureFromDef(&edgeFixture)
	}

	// Lander body
	initialX, initialY := start.AtVec(0), start.AtVec(1)
	bodyDef := box2d.MakeB2BodyDef()
	bodyDef.Type = 2
	bodyDef.Position = box2d.MakeB2Vec2(initialX, initialY)
	bodyDef.Angle = 0.0
	l.body = l.world.CreateBody(&bodyDef)

	vertices := make([]box2d.B2Vec2, len(LanderPoly))
	for i := range LanderPoly {
		vertices[i] = box2d.MakeB2Vec2(LanderPoly[i][0]/Scale,
			LanderPoly[i][1]/Scale)
	}
	bodyShape := box2d.NewB2PolygonShape()
	bodyShape.Set(vertices, len(vertices))

	bodyFix := box2d.MakeB2FixtureDef()
	bodyFix.Shape = bodyShape
	bodyFix.Density = 5.0
	bodyFix.Friction = 0.1
	bodyFix.Restitution = 0.0
	filter := box2d.MakeB2Filter()
	filter.CategoryBits = 0x0010
	filter.MaskBits = 0x001
	bodyFix.Filter = filter
	l.body.CreateFixtureFromDef(&bodyFix)

	force := start.AtVec(2)
	l.body.ApplyForceToCenter(box2d.MakeB2Vec2(l.noise.Rand()*force,
		l.noise.Rand()*force), true)

	// Legs, attached to the body with spring-loaded revolute joints
	l.legs = make([]*box2d.B2Body, 0, 2)
	for _, i := range []float64{-1.0, 1.0} {
		legDef := box2d.NewB2BodyDef()
		legDef.Type = 2
		legDef.Position = box2d.MakeB2Vec2(initialX-i*LegAway/Scale, initialY)
		legDef.Angle = i * 0.05
		leg := l.world.CreateBody(legDef)
		l.legs = append(l.legs, leg)

		legShape := box2d.NewB2PolygonShape()
		legShape.SetAsBox(LegW/Scale, LegH/Scale)

		legFix := box2d.MakeB2FixtureDef()
		legFix.Density = 1.0
		legFix.Restitution = 0.0
		legFix.Shape = legShape
		filter := box2d.MakeB2Filter()
		filter.CategoryBits = 0x0020
		filter.MaskBits = 0x001
		legFix.Filter = filter
		leg.CreateFixtureFromDef(&legFix)

		rjd := box2d.MakeB2RevoluteJointDef()
		rjd.BodyA = l.body
		rjd.BodyB = leg
		rjd.LocalAnchorA = box2d.MakeB2Vec2(0., 0.)
		rjd.LocalAnchorB = box2d.MakeB2Vec2(i*LegAway/Scale, LegDown/Scale)
		rjd.EnableMotor = true
		rjd.EnableLimit = true
		rjd.MaxMotorTorque = LegSpringTorque
		rjd.MotorSpeed = 0.3 * i
		if i < 0 {
			rjd.LowerAngle = 0.9 - 0.5
			rjd.UpperAngle = 0.9
		} else {
			rjd.LowerAngle = -0.9
			rjd.UpperAngle = -0.9 + 0.5
		}
		l.world.CreateJoint(&rjd)
	}
	l.legContact = [2]bool{}

	// Settle the lander with a no-op step, which also initializes the
	// reward shaping of the task
	step, done := l.step(0, 0)
	if done {
		return ts.TimeStep{}, fmt.Errorf("reset: environment ended as " +
			"soon as it began")
	}
	step.StepType = ts.First
	step.Reward = 0
	step.Number = 0
	l.current = step

	return step, nil
}

// step applies main and side engine throttles, each in [-1, 1], and
// advances the world by one frame.
func (l *lander) step(main, side float64) (ts.TimeStep, bool) {
	main = floatutils.Clip(main, -1, 1)
	side = floatutils.Clip(side, -1, 1)

	tip := [2]float64{math.Sin(l.body.GetAngle()), math.Cos(l.body.GetAngle())}
	perp := [2]float64{-tip[1], tip[0]}
	dispersion := [2]float64{l.noise.Rand() / Scale, l.noise.Rand() / Scale}

	// Main engine only fires for positive throttle, at 50% to 100% power
	l.mPower = 0.0
	if main > 0.0 {
		l.mPower = (main + 1.0) * 0.5

		ox := tip[0]*(4.0/Scale+2.0*dispersion[0]) + perp[0]*dispersion[1]
		oy := -tip[1]*(4.0/Scale+2.0*dispersion[0]) - perp[1]*dispersion[1]
		pos := l.body.GetPosition()
		l.body.ApplyLinearImpulse(
			box2d.MakeB2Vec2(-ox*MainEnginePower*l.mPower,
				-oy*MainEnginePower*l.mPower),
			box2d.MakeB2Vec2(pos.X+ox, pos.Y+oy),
			true,
		)
	}

	// Side engines fire for |throttle| > 0.5
	l.sPower = 0.0
	if math.Abs(side) > 0.5 {
		direction := floatutils.Sign(side)
		l.sPower = floatutils.Clip(math.Abs(side), 0.5, 1.0)

		ox := tip[0]*dispersion[0] + perp[0]*(3.0*dispersion[1]+
			direction*SideEngineAway/Scale)
		oy := -tip[1]*dispersion[0] - perp[1]*(3.0*dispersion[1]+
			direction*SideEngineAway/Scale)
		pos := l.body.GetPosition()
		l.body.ApplyLinearImpulse(
			box2d.MakeB2Vec2(-ox*SideEnginePower*l.sPower,
				-oy*SideEnginePower*l.sPower),
			box2d.MakeB2Vec2(pos.X+ox-tip[0]*17.0/Scale,
				pos.Y+oy+tip[1]*SideEngineHeight/Scale),
			true,
		)
	}

	l.world.Step(1.0/FPS, 6*int(Scale), 2*int(Scale))

	obs := l.observe()
	reward, terminal := l.task.reward(l, obs)

	t := ts.New(ts.Mid, reward, l.discount, obs, l.current.Number+1)
	if terminal {
		t.SetEnd(ts.Terminal)
	} else {
		l.task.End(&t)
	}
	l.current = t

	return t, t.Last()
}

// observe returns the current state observation
func (l *lander) observe() *mat.VecDense {
	pos := l.body.GetPosition()
	vel := l.body.GetLinearVelocity()

	var leg1, leg2 float64
	if l.legContact[0] {
		leg1 = 1.0
	}
	if l.legContact[1] {
		leg2 = 1.0
	}

	return mat.NewVecDense(StateObservations, []float64{
		(pos.X - ViewportW/Scale/2.0) / (ViewportW / Scale / 2.0),
		(pos.Y - (l.helipadY + LegDown/Scale)) / (ViewportH/Scale - l.helipadY),
		vel.X * (ViewportW / Scale / 2.0) / FPS,
		vel.Y * (ViewportH / Scale / 2.0) / FPS,
		floatutils.Wrap(l.body.GetAngle(), MinAngle, MaxAngle),
		20.0 * l.body.GetAngularVelocity() / FPS,
		leg1,
		leg2,
	})
}

// Render draws the current frame to a PNG file
func (l *lander) Render(filename string) error {
	if l.body == nil {
		return fmt.Errorf("render: environment must be reset before " +
			"rendering")
	}

	dc := gg.NewContext(int(ViewportW), int(ViewportH))
	dc.SetColor(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	dc.Clear()

	// Sky above the moon surface
	dc.MoveTo(worldToPixel(l.moonVertices[0][0], ViewportH/Scale))
	for _, v := range l.moonVertices {
		dc.LineTo(worldToPixel(v[0], v[1]))
	}
	last := l.moonVertices[len(l.moonVertices)-1]
	dc.LineTo(worldToPixel(last[0], ViewportH/Scale))
	dc.ClosePath()
	dc.SetColor(color.RGBA{R: 30, G: 30, B: 30, A: 255})
	dc.Fill()

	// Helipad
	x1, y := worldToPixel(l.helipadX1, l.helipadY)
	x2, _ := worldToPixel(l.helipadX2, l.helipadY)
	dc.SetColor(color.RGBA{R: 204, G: 204, B: 0, A: 255})
	dc.SetLineWidth(3.0)
	dc.DrawLine(x1, y, x2, y)
	dc.Stroke()

	// Walls
	dc.SetColor(color.RGBA{R: 255, G: 166, B: 0, A: 255})
	dc.SetLineWidth(5.0)
	for _, bound := range l.boundary {
		edge := bound.GetFixtureList().M_shape.(*box2d.B2EdgeShape)
		x1, y1 := worldToPixel(edge.M_vertex1.X, edge.M_vertex1.Y)
		x2, y2 := worldToPixel(edge.M_vertex2.X, edge.M_vertex2.Y)
		dc.DrawLine(x1, y1, x2, y2)
	}
	dc.Stroke()

	// Lander and legs
	dc.SetColor(color.RGBA{R: 128, G: 102, B: 230, A: 255})
	for _, body := range append([]*box2d.B2Body{l.body}, l.legs...) {
		for fix := body.GetFixtureList(); fix != nil; fix = fix.M_next {
			shape := fix.M_shape.(*box2d.B2PolygonShape)
			dc.ClearPath()
			for i := 0; i < shape.M_count; i++ {
				v := box2d.B2TransformVec2Mul(body.M_xf, shape.M_vertices[i])
				dc.LineTo(worldToPixel(v.X, v.Y))
			}
			dc.ClosePath()
			dc.Fill()
		}
	}

	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("render: could not save frame: %v", err)
	}
	return nil
}

// CurrentTimeStep returns the last TimeStep of the environment
func (l *lander) CurrentTimeStep() ts.TimeStep {
	return l.current
}

// DiscountSpec returns the discount specification of the environment
func (l *lander) DiscountSpec() environment.Spec {
	return environment.NewDiscountSpec(l.discount)
}

// ObservationSpec returns the observation specification of the
// environment
func (l *lander) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(StateObservations, nil)

	lowerBound := mat.NewVecDense(StateObservations, []float64{
		-1., 0., MinVelocity, MinVelocity, MinAngle, MinVelocity, 0., 0.,
	})
	upperBound := mat.NewVecDense(StateObservations, []float64{
		1., 1., MaxVelocity, MaxVelocity, MaxAngle, MaxVelocity, 1., 1.,
	})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

func (l *lander) validateStart(state *mat.VecDense) error {
	if state.Len() != 3 {
		return fmt.Errorf("starting values should be 3-dimensional, got %v",
			state.Len())
	}

	if x := state.AtVec(0); x > l.xBounds.Max || x < l.xBounds.Min {
		return fmt.Errorf("x position out of bounds, expected x ϵ "+
			"[%v, %v] but got x = %v", l.xBounds.Min, l.xBounds.Max, x)
	}

	if y := state.AtVec(1); y > l.yBounds.Max || y < l.yBounds.Min {
		return fmt.Errorf("y position out of bounds, expected y ϵ "+
			"[%v, %v] but got y = %v", l.yBounds.Min, l.yBounds.Max, y)
	}

	return nil
}
