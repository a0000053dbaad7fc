package api

import (
	"context"

	"earnyard-ledger-go/internal/marketplace"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"
)

func (s *Service) CreateOffer(ctx context.Context, actor *models.User, in marketplace.OfferInput) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "create_offer", "", nil, err)
	}
	offer, err := s.marketplace.CreateOffer(ctx, actor.Id, in)
	return s.finish(ctx, "create_offer", actor.Id, offer, err)
}

func (s *Service) EngageTask(ctx context.Context, actor *models.User, offerId string) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "engage_task", "", nil, err)
	}
	offer, err := s.marketplace.Engage(ctx, actor.Id, offerId)
	return s.finish(ctx, "engage_task", actor.Id, offer, err)
}

func (s *Service) SubmitProof(ctx context.Context, actor *models.User, offerId, proof string) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "submit_proof", "", nil, err)
	}
	sub, err := s.marketplace.SubmitProof(ctx, actor.Id, offerId, proof)
	return s.finish(ctx, "submit_proof", actor.Id, sub, err)
}

// ReviewSubmission settles a submission. The result carries the worker's
// balance.
func (s *Service) ReviewSubmission(ctx context.Context, actor *models.User, submissionId string, approve bool) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "review_submission", "", nil, err)
	}
	sub, err := s.marketplace.Review(ctx, actor, submissionId, approve)
	if err != nil {
		return s.finish(ctx, "review_submission", actor.Id, nil, err)
	}
	return s.finish(ctx, "review_submission", sub.UserId, sub, nil)
}

// ListOffers lists the actor's own offers when mine is set, otherwise the
// active offers the actor can work on.
func (s *Service) ListOffers(ctx context.Context, actor *models.User, mine bool) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "list_offers", "", nil, err)
	}
	filter := store.OfferFilter{Status: models.OfferActive, ExcludeCreatedBy: actor.Id}
	if mine {
		filter = store.OfferFilter{CreatedBy: actor.Id}
		if actor.IsAdmin() {
			filter.CreatedBy = marketplace.AdminCreator
		}
	}
	offers, err := s.marketplace.ListOffers(ctx, filter)
	return s.finish(ctx, "list_offers", actor.Id, offers, err)
}

func (s *Service) ReviewQueue(ctx context.Context, actor *models.User) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "review_queue", "", nil, err)
	}
	subs, err := s.marketplace.ReviewQueue(ctx, actor)
	return s.finish(ctx, "review_queue", actor.Id, subs, err)
}

func (s *Service) MySubmissions(ctx context.Context, actor *models.User) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "my_submissions", "", nil, err)
	}
	subs, err := s.marketplace.ListSubmissions(ctx, store.SubmissionFilter{UserId: actor.Id})
	return s.finish(ctx, "my_submissions", actor.Id, subs, err)
}
