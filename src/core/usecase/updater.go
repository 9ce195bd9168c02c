package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"machinetools/src/core/domain"
	"machinetools/src/core/ports"
)

// Updater applies partial updates to the machines selected by a predicate.
//
// Each call flattens its update, then runs the column update and requirement
// replacement as one transaction on a fresh query.
type Updater struct {
	repo ports.MachineRepository
	log  *slog.Logger
}

// NewUpdater creates an Updater.
func NewUpdater(repo ports.MachineRepository, log *slog.Logger) *Updater {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Updater{repo: repo, log: log.With("component", "updater")}
}

func (u *Updater) apply(ctx context.Context, op string, update domain.MachineUpdate, filter func(q ports.MachineQuery)) (int64, error) {
	payload, err := update.Flatten()
	if err != nil {
		return 0, err
	}

	opID := uuid.NewString()
	log := u.log.With("op_id", opID, "op", op)
	if len(payload) == 0 {
		log.Warn("empty update ignored")
		return 0, nil
	}

	q := u.repo.Query()
	filter(q)

	n, err := q.Update(ports.WithOperationID(ctx, opID), payload)
	if err != nil {
		log.Error("update failed", "error", err)
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("machines updated", "count", n)
	return n, nil
}

// UpdateByID updates the machine with the given id and reports whether it
// exists.
func (u *Updater) UpdateByID(ctx context.Context, id int64, update domain.MachineUpdate) (bool, error) {
	n, err := u.apply(ctx, "update by id", update, func(q ports.MachineQuery) {
		q.FilterByID(id)
	})
	return n > 0, err
}

// UpdateByName updates every machine whose name matches.
func (u *Updater) UpdateByName(ctx context.Context, name string, match domain.NameMatch, update domain.MachineUpdate) (int64, error) {
	return u.apply(ctx, "update by name", update, func(q ports.MachineQuery) {
		q.FilterByName(name, match)
	})
}

// UpdateByPower updates every machine with power within r.
func (u *Updater) UpdateByPower(ctx context.Context, r domain.Range, update domain.MachineUpdate) (int64, error) {
	if err := validateRange(domain.ColPower, r); err != nil {
		return 0, err
	}
	return u.apply(ctx, "update by power", update, func(q ports.MachineQuery) {
		q.FilterByPower(r)
	})
}

// UpdateByEfficiency updates every machine with efficiency within r.
func (u *Updater) UpdateByEfficiency(ctx context.Context, r domain.Range, update domain.MachineUpdate) (int64, error) {
	if err := validateRange(domain.ColEfficiency, r); err != nil {
		return 0, err
	}
	return u.apply(ctx, "update by efficiency", update, func(q ports.MachineQuery) {
		q.FilterByEfficiency(r)
	})
}

// UpdateByAccuracy updates every machine in any of the accuracy classes.
func (u *Updater) UpdateByAccuracy(ctx context.Context, values []domain.Accuracy, update domain.MachineUpdate) (int64, error) {
	values, err := coerceAll(domain.AccuracyField, values)
	if err != nil {
		return 0, err
	}
	return u.apply(ctx, "update by accuracy", update, func(q ports.MachineQuery) {
		q.FilterByAccuracy(values...)
	})
}

// UpdateByAutomation updates every machine with any of the automation levels.
func (u *Updater) UpdateByAutomation(ctx context.Context, values []domain.Automation, update domain.MachineUpdate) (int64, error) {
	values, err := coerceAll(domain.AutomationField, values)
	if err != nil {
		return 0, err
	}
	return u.apply(ctx, "update by automation", update, func(q ports.MachineQuery) {
		q.FilterByAutomation(values...)
	})
}

// UpdateBySpecialization updates every machine with any of the specializations.
func (u *Updater) UpdateBySpecialization(ctx context.Context, values []domain.Specialization, update domain.MachineUpdate) (int64, error) {
	values, err := coerceAll(domain.SpecializationField, values)
	if err != nil {
		return 0, err
	}
	return u.apply(ctx, "update by specialization", update, func(q ports.MachineQuery) {
		q.FilterBySpecialization(values...)
	})
}

// UpdateBySoftwareControl updates every machine with any of the control kinds.
func (u *Updater) UpdateBySoftwareControl(ctx context.Context, values []domain.SoftwareControl, update domain.MachineUpdate) (int64, error) {
	values, err := coerceAll(domain.SoftwareControlField, values)
	if err != nil {
		return 0, err
	}
	return u.apply(ctx, "update by software control", update, func(q ports.MachineQuery) {
		q.FilterBySoftwareControl(values...)
	})
}

// UpdateByWeightClass updates every machine in any of the weight classes.
func (u *Updater) UpdateByWeightClass(ctx context.Context, values []domain.WeightClass, update domain.MachineUpdate) (int64, error) {
	values, err := coerceAll(domain.WeightClassField, values)
	if err != nil {
		return 0, err
	}
	return u.apply(ctx, "update by weight class", update, func(q ports.MachineQuery) {
		q.FilterByWeightClass(values...)
	})
}

// UpdateByGroup updates every machine in any of the groups.
func (u *Updater) UpdateByGroup(ctx context.Context, groups []int, update domain.MachineUpdate) (int64, error) {
	if err := validateCodes(domain.ColGroup, groups...); err != nil {
		return 0, err
	}
	return u.apply(ctx, "update by group", update, func(q ports.MachineQuery) {
		q.FilterByGroup(groups...)
	})
}

// UpdateByType updates every machine of any of the types.
func (u *Updater) UpdateByType(ctx context.Context, types []int, update domain.MachineUpdate) (int64, error) {
	if err := validateCodes(domain.ColType, types...); err != nil {
		return 0, err
	}
	return u.apply(ctx, "update by type", update, func(q ports.MachineQuery) {
		q.FilterByType(types...)
	})
}

// UpdateMachineInfo writes a whole detail record to the machine with the
// same name and reports whether it exists.
func (u *Updater) UpdateMachineInfo(ctx context.Context, info domain.MachineInfo) (bool, error) {
	update, err := domain.UpdateFromInfo(info)
	if err != nil {
		return false, err
	}
	n, err := u.UpdateByName(ctx, info.Name, domain.ExactName, update)
	return n > 0, err
}
