package rpc

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/execution"
	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
	"github.com/Cogwheel-Validator/spectra-swap-engine/router"
)

// EngineServer exposes the routing engine over JSON HTTP.
type EngineServer struct {
	pathfinder *router.Pathfinder
	graph      *router.Graph

	// Fiat pricing is optional; when either dependency is missing the
	// fee responses simply omit the fiat total.
	prices       fees.PriceStoring
	decimals     fees.AssetDecimalsProviding
	fiatCurrency string
}

// NewEngineServer creates the handler set. prices and decimals may be nil.
func NewEngineServer(
	pathfinder *router.Pathfinder,
	graph *router.Graph,
	prices fees.PriceStoring,
	decimals fees.AssetDecimalsProviding,
	fiatCurrency string,
) *EngineServer {
	return &EngineServer{
		pathfinder:   pathfinder,
		graph:        graph,
		prices:       prices,
		decimals:     decimals,
		fiatCurrency: fiatCurrency,
	}
}

// HandleQuote implements POST /v1/quote.
//
// Returns:
// - 400 Bad Request: Invalid input (bad amount, unknown direction)
// - 200 OK with success=false: Valid query but no viable route
// - 200 OK with success=true: Route found
func (s *EngineServer) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req models.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		quoteRequestsTotal.WithLabelValues(outcomeBadRequest).Inc()
		writeJSON(w, http.StatusBadRequest, models.QuoteResponse{
			Success:      false,
			ErrorMessage: "invalid request body: " + err.Error(),
		})
		return
	}

	args, err := parseQuoteArgs(req.AssetIn, req.AssetOut, req.Amount, req.Direction)
	if err != nil {
		quoteRequestsTotal.WithLabelValues(outcomeBadRequest).Inc()
		writeJSON(w, http.StatusBadRequest, models.QuoteResponse{
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return
	}

	quote, err := s.pathfinder.FindRoute(r.Context(), args)
	if err != nil {
		if isRouteFailure(err) {
			quoteRequestsTotal.WithLabelValues(outcomeNoRoute).Inc()
			writeJSON(w, http.StatusOK, models.QuoteResponse{
				Success:      false,
				ErrorMessage: err.Error(),
			})
			return
		}
		quoteRequestsTotal.WithLabelValues(outcomeError).Inc()
		Logger.Error().Err(err).Msg("quote request failed")
		writeJSON(w, http.StatusInternalServerError, models.QuoteResponse{
			Success:      false,
			ErrorMessage: "internal error",
		})
		return
	}

	quoteRequestsTotal.WithLabelValues(outcomeFound).Inc()
	quoteHops.Observe(float64(len(quote.Route.Items)))
	writeJSON(w, http.StatusOK, s.quoteResponse(r, quote))
}

func (s *EngineServer) quoteResponse(r *http.Request, quote *router.ExchangeQuote) models.QuoteResponse {
	resp := models.QuoteResponse{
		Success:   true,
		Direction: string(quote.Route.Direction),
		AmountIn:  quote.Route.AmountIn().String(),
		AmountOut: quote.Route.AmountOut().String(),
	}

	for i, meta := range quote.MetaOperations {
		hop := models.HopSummary{
			AssetIn:   models.RefFor(meta.AssetIn),
			AssetOut:  models.RefFor(meta.AssetOut),
			AmountIn:  meta.AmountIn.String(),
			AmountOut: meta.AmountOut.String(),
			Label:     string(meta.Label),
		}
		if i < len(quote.ExecutionTimes) {
			hop.EstimatedSeconds = quote.ExecutionTimes[i].Seconds()
		}
		resp.Hops = append(resp.Hops, hop)
	}
	resp.TotalSeconds = quote.TotalExecutionTimeFrom(0).Seconds()

	if quote.Fee != nil {
		resp.Fee = s.feeSummary(r, quote.Fee, quote.Route.AssetIn())
	}
	return resp
}

// HandleFee implements POST /v1/fee. It finds the route the equivalent
// quote query would return, composes it at the requested slippage and
// returns the aggregate fee plus the buffered total a wallet should hold.
func (s *EngineServer) HandleFee(w http.ResponseWriter, r *http.Request) {
	var req models.FeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		feeRequestsTotal.WithLabelValues(outcomeBadRequest).Inc()
		writeJSON(w, http.StatusBadRequest, models.FeeResponse{
			Success:      false,
			ErrorMessage: "invalid request body: " + err.Error(),
		})
		return
	}

	args, err := parseQuoteArgs(req.AssetIn, req.AssetOut, req.Amount, req.Direction)
	if err != nil {
		feeRequestsTotal.WithLabelValues(outcomeBadRequest).Inc()
		writeJSON(w, http.StatusBadRequest, models.FeeResponse{
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return
	}

	slippage := decimal.Zero
	if req.Slippage != "" {
		slippage, err = decimal.NewFromString(req.Slippage)
		if err != nil || slippage.Sign() < 0 {
			feeRequestsTotal.WithLabelValues(outcomeBadRequest).Inc()
			writeJSON(w, http.StatusBadRequest, models.FeeResponse{
				Success:      false,
				ErrorMessage: "slippage must be a non-negative decimal",
			})
			return
		}
	}

	var feeAsset models.ChainAssetID
	if req.FeeAsset != nil {
		feeAsset = req.FeeAsset.ID()
	}

	quote, err := s.pathfinder.FindRoute(r.Context(), args)
	if err != nil {
		if isRouteFailure(err) {
			feeRequestsTotal.WithLabelValues(outcomeNoRoute).Inc()
			writeJSON(w, http.StatusOK, models.FeeResponse{
				Success:      false,
				ErrorMessage: err.Error(),
			})
			return
		}
		feeRequestsTotal.WithLabelValues(outcomeError).Inc()
		Logger.Error().Err(err).Msg("fee request failed during routing")
		writeJSON(w, http.StatusInternalServerError, models.FeeResponse{
			Success:      false,
			ErrorMessage: "internal error",
		})
		return
	}

	composition, err := execution.Compose(quote.Route, slippage, feeAsset)
	if err != nil {
		feeRequestsTotal.WithLabelValues(outcomeNoRoute).Inc()
		writeJSON(w, http.StatusOK, models.FeeResponse{
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return
	}

	fee, err := composition.EstimateFee(r.Context())
	if err != nil {
		feeRequestsTotal.WithLabelValues(outcomeError).Inc()
		Logger.Error().Err(err).Msg("fee estimation failed")
		writeJSON(w, http.StatusInternalServerError, models.FeeResponse{
			Success:      false,
			ErrorMessage: "internal error",
		})
		return
	}

	assetIn := quote.Route.AssetIn()
	total := fee.TotalFeeInAssetIn(assetIn, fees.SelectedAccount())

	feeRequestsTotal.WithLabelValues(outcomeFound).Inc()
	writeJSON(w, http.StatusOK, models.FeeResponse{
		Success:                true,
		Fee:                    s.feeSummary(r, fee, assetIn),
		BufferedTotalInAssetIn: execution.ApplyFeeBuffer(total).String(),
	})
}

// HandleDestinations implements GET /v1/assets/{chain}/{asset}/destinations.
// The answer comes straight from the reachability index of the current
// edge snapshot.
func (s *EngineServer) HandleDestinations(w http.ResponseWriter, r *http.Request) {
	origin := models.NewChainAssetID(
		chi.URLParam(r, "chain"),
		chi.URLParam(r, "asset"),
	)

	snapshot := s.graph.Snapshot()
	if snapshot == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.DestinationsResponse{
			Success:      false,
			ErrorMessage: "no edge set published yet",
			Origin:       models.RefFor(origin),
		})
		return
	}

	reachable := snapshot.Index.AssetsOut(origin)
	destinations := make([]models.AssetRef, 0, len(reachable))
	for asset := range reachable {
		destinations = append(destinations, models.RefFor(asset))
	}
	sort.Slice(destinations, func(i, j int) bool {
		if destinations[i].ChainID != destinations[j].ChainID {
			return destinations[i].ChainID < destinations[j].ChainID
		}
		return destinations[i].AssetID < destinations[j].AssetID
	})

	writeJSON(w, http.StatusOK, models.DestinationsResponse{
		Success:      true,
		Origin:       models.RefFor(origin),
		Destinations: destinations,
	})
}

func (s *EngineServer) feeSummary(
	r *http.Request,
	fee *fees.ExchangeFee,
	assetIn models.ChainAssetID,
) *models.FeeSummary {
	intermediate := big.NewInt(0)
	if fee.IntermediateFeesInAssetIn != nil {
		intermediate = fee.IntermediateFeesInAssetIn
	}

	summary := &models.FeeSummary{
		FeeAsset:                  models.RefFor(fee.FeeAssetID),
		OriginFee:                 fee.OriginFeeInFeeAsset().String(),
		IntermediateFeesInAssetIn: intermediate.String(),
		TotalFeeInAssetIn:         fee.TotalFeeInAssetIn(assetIn, fees.SelectedAccount()).String(),
	}

	if s.prices != nil && s.decimals != nil {
		fiat, err := fee.TotalInFiat(r.Context(), s.prices, s.decimals)
		if err != nil {
			Logger.Warn().Err(err).Msg("fiat conversion failed, omitting from response")
		} else {
			summary.TotalFiat = fiat.String()
			summary.FiatCurrency = s.fiatCurrency
		}
	}
	return summary
}

func parseQuoteArgs(
	assetIn, assetOut models.AssetRef,
	amount, direction string,
) (router.QuoteArgs, error) {
	var args router.QuoteArgs

	if assetIn.ChainID == "" || assetIn.AssetID == "" {
		return args, errors.New("asset_in requires chain_id and asset_id")
	}
	if assetOut.ChainID == "" || assetOut.AssetID == "" {
		return args, errors.New("asset_out requires chain_id and asset_id")
	}

	parsed, ok := new(big.Int).SetString(amount, 10)
	if !ok || parsed.Sign() <= 0 {
		return args, errors.New("amount must be a positive base-10 integer")
	}

	dir, err := models.ParseDirection(direction)
	if err != nil {
		return args, err
	}

	args = router.QuoteArgs{
		AssetIn:   assetIn.ID(),
		AssetOut:  assetOut.ID(),
		Amount:    parsed,
		Direction: dir,
	}
	return args, nil
}

// isRouteFailure reports whether the error is a valid-query-no-answer
// outcome rather than an internal fault.
func isRouteFailure(err error) bool {
	return errors.Is(err, router.ErrNoRoute) ||
		errors.Is(err, router.ErrAllQuotesFailed) ||
		errors.Is(err, router.ErrRouteNotExecutable)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		Logger.Error().Err(err).Msg("failed to encode response")
	}
}
