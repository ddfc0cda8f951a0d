package server

import (
	"errors"
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-figure/pkg/animation"
	"github.com/teslashibe/go-figure/pkg/choreo"
	"github.com/teslashibe/go-figure/pkg/kinematics"
)

// errorHandler maps domain errors to status codes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, choreo.ErrNotFound), errors.Is(err, kinematics.ErrNoSuchJoint):
		code = fiber.StatusNotFound
	case errors.Is(err, kinematics.ErrNoPath), errors.Is(err, kinematics.ErrEmptyChain),
		errors.Is(err, kinematics.ErrIncompleteJoint):
		code = fiber.StatusUnprocessableEntity
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Figure    string                `json:"figure"`
	Driver    animation.DriverStats `json:"driver"`
	Active    []string              `json:"active"`
	Clients   int                   `json:"clients"`
	Published uint64                `json:"published"`
}

// handleStatus returns loop diagnostics
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		Figure:    s.name,
		Driver:    s.driver.Stats(),
		Active:    []string{},
		Clients:   s.frameHub.ClientCount(),
		Published: s.published.Load(),
	}
	_ = s.driver.Do(func(_ *kinematics.Skeleton, sched *animation.Scheduler) error {
		for _, a := range sched.Active() {
			resp.Active = append(resp.Active, a.Name())
		}
		return nil
	})
	return c.JSON(resp)
}

// handleJoints returns the current pose
func (s *Server) handleJoints(c *fiber.Ctx) error {
	return c.JSON(s.driver.Snapshot())
}

// ActionInfo describes one library action.
type ActionInfo struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Priority  int                   `json:"priority"`
	Duration  float64               `json:"duration"`
	Speed     float64               `json:"speed"`
	Cyclic    bool                  `json:"cyclic"`
	Active    bool                  `json:"active"`
	Elapsed   float64               `json:"elapsed"`
	Remaining *float64              `json:"remaining,omitempty"`
	Noise     animation.NoiseParams `json:"noise"`
	Joints    []string              `json:"joints"`
}

func describe(a *animation.Action) ActionInfo {
	info := ActionInfo{
		ID:       a.ID().String(),
		Name:     a.Name(),
		Priority: a.Priority(),
		Duration: a.Duration(),
		Speed:    a.Speed(),
		Cyclic:   a.Cyclic(),
		Active:   a.IsActive(),
		Elapsed:  a.Elapsed(),
		Noise:    a.NoiseDefaults(),
		Joints:   []string{},
	}
	if r := a.Remaining(); !math.IsInf(r, 1) {
		info.Remaining = &r
	}
	for _, jm := range a.JointMovers() {
		info.Joints = append(info.Joints, jm.Joint().Name())
	}
	return info
}

// withAction looks up :name and runs fn under the driver lock.
func (s *Server) withAction(c *fiber.Ctx, fn func(*animation.Action, *animation.Scheduler) error) error {
	a, err := s.lib.Get(c.Params("name"))
	if err != nil {
		return err
	}
	return s.driver.Do(func(_ *kinematics.Skeleton, sched *animation.Scheduler) error {
		return fn(a, sched)
	})
}

// handleListActions returns every action in the library
func (s *Server) handleListActions(c *fiber.Ctx) error {
	var out []ActionInfo
	_ = s.driver.Do(func(*kinematics.Skeleton, *animation.Scheduler) error {
		for _, a := range s.lib.Actions() {
			out = append(out, describe(a))
		}
		return nil
	})
	return c.JSON(out)
}

// handleGetAction returns one action
func (s *Server) handleGetAction(c *fiber.Ctx) error {
	var info ActionInfo
	err := s.withAction(c, func(a *animation.Action, _ *animation.Scheduler) error {
		info = describe(a)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(info)
}

// UpdateActionRequest is the body of PATCH /api/actions/:name.
type UpdateActionRequest struct {
	Speed      *float64 `json:"speed"`
	Cyclic     *bool    `json:"cyclic"`
	TimeToLive *float64 `json:"ttl"`
}

// handleUpdateAction changes playback settings
func (s *Server) handleUpdateAction(c *fiber.Ctx) error {
	var req UpdateActionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var info ActionInfo
	err := s.withAction(c, func(a *animation.Action, _ *animation.Scheduler) error {
		if req.Speed != nil {
			a.SetSpeed(*req.Speed)
		}
		if req.Cyclic != nil {
			a.SetCyclic(*req.Cyclic)
		}
		if req.TimeToLive != nil {
			a.SetTimeToLive(*req.TimeToLive)
		}
		info = describe(a)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(info)
}

// handleActivate schedules an action from its start
func (s *Server) handleActivate(c *fiber.Ctx) error {
	var info ActionInfo
	err := s.withAction(c, func(a *animation.Action, sched *animation.Scheduler) error {
		if !a.IsActive() {
			sched.Activate(a)
			s.announce("activated", a)
		}
		info = describe(a)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(info)
}

// handleDeactivate stops an action
func (s *Server) handleDeactivate(c *fiber.Ctx) error {
	var info ActionInfo
	err := s.withAction(c, func(a *animation.Action, sched *animation.Scheduler) error {
		sched.Deactivate(a)
		info = describe(a)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(info)
}

// NoiseRequest is the body of PATCH /api/actions/:name/noise. Scale
// multiplies amplitudes; the other fields overwrite; Offsets sets target
// offsets per dof name.
type NoiseRequest struct {
	Scale      *float64           `json:"scale"`
	Amplitude  *float64           `json:"amplitude"`
	WaveLength *float64           `json:"wavelength"`
	Overshoot  *float64           `json:"overshoot"`
	Offset     *float64           `json:"offset"`
	Peak       *float64           `json:"peak"`
	Offsets    map[string]float64 `json:"offsets"`
}

func (r NoiseRequest) modifier() animation.NoiseModifier {
	return func(m *animation.DofMover, p *animation.NoiseParams) {
		if r.Scale != nil {
			animation.ScaleNoise(*r.Scale)(m, p)
		}
		set := func(dst *float64, v *float64) {
			if v != nil {
				*dst = *v
			}
		}
		set(&p.Amplitude, r.Amplitude)
		set(&p.WaveLength, r.WaveLength)
		set(&p.Overshoot, r.Overshoot)
		set(&p.Offset, r.Offset)
		set(&p.PeakTime, r.Peak)
		if r.Offsets != nil {
			animation.OffsetsFrom(r.Offsets)(m, p)
		}
	}
}

// handleNoise edits the noise of every noisy mover of an action
func (s *Server) handleNoise(c *fiber.Ctx) error {
	var req NoiseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var modified int
	err := s.withAction(c, func(a *animation.Action, _ *animation.Scheduler) error {
		modified = a.ModifyNoisy(req.modifier())
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"modified": modified})
}

// IKRequest is the body of POST /api/ik. Effector is in the end joint's
// frame; Target is in world space.
type IKRequest struct {
	Base      string     `json:"base"`
	End       string     `json:"end"`
	Effector  [3]float64 `json:"effector"`
	Target    [3]float64 `json:"target"`
	MaxSteps  int        `json:"max_steps"`
	Tolerance float64    `json:"tolerance"`
}

// IKResponse reports the solve.
type IKResponse struct {
	Steps     int                  `json:"steps"`
	Residual  float64              `json:"residual"`
	Effector  [3]float64           `json:"effector"`
	Positions map[string][]float64 `json:"positions"`
}

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

// handleIK solves a chain toward a target and leaves the figure posed
func (s *Server) handleIK(c *fiber.Ctx) error {
	var req IKRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.MaxSteps <= 0 || req.MaxSteps > s.cfg.IKMaxSteps {
		req.MaxSteps = s.cfg.IKMaxSteps
	}
	if req.Tolerance <= 0 {
		req.Tolerance = s.cfg.IKTolerance
	}

	var resp IKResponse
	err := s.driver.Do(func(skel *kinematics.Skeleton, _ *animation.Scheduler) error {
		base, ok := skel.JointByName(req.Base)
		if !ok {
			return fmt.Errorf("base %q: %w", req.Base, kinematics.ErrNoSuchJoint)
		}
		end, ok := skel.JointByName(req.End)
		if !ok {
			return fmt.Errorf("end %q: %w", req.End, kinematics.ErrNoSuchJoint)
		}
		chain, err := skel.NewIKChain(base.ID(), end.ID(), vec(req.Effector))
		if err != nil {
			return err
		}
		chain.SetTarget(vec(req.Target))
		resp.Steps, resp.Residual = chain.Solve(req.MaxSteps, req.Tolerance)

		e := chain.EndEffector()
		resp.Effector = [3]float64{e.X, e.Y, e.Z}
		resp.Positions = make(map[string][]float64)
		for _, d := range chain.Dofs() {
			j := skel.Joint(d.Owner())
			resp.Positions[j.Name()] = j.Positions()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
