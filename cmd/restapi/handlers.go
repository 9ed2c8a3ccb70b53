package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"perovskite-chain/core"
)

type registerPanelRequest struct {
	PanelID                     string  `json:"panelId"`
	ProductionDate              string  `json:"productionDate"`
	NominalEfficiencyPct        float64 `json:"nominalEfficiencyPct"`
	SizeM2                      float64 `json:"sizeM2"`
	Manufacturer                string  `json:"manufacturer"`
	ManufacturingFootprintKgCO2 float64 `json:"manufacturingFootprintKgco2"`
	LifetimeYears               int     `json:"lifetimeYears"`
	CarbonReductionFactor       float64 `json:"carbonReductionFactor"`
	Owner                       string  `json:"owner"`
}

func (s *Server) handleRegisterPanel(w http.ResponseWriter, r *http.Request) {
	var req registerPanelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	date, err := time.Parse("2006-01-02", req.ProductionDate)
	if err != nil {
		writeError(w, err)
		return
	}
	issuance, err := s.ledger.RegisterPanel(core.PanelRecord{
		PanelID:                     req.PanelID,
		ProductionDate:              date,
		NominalEfficiencyPct:        req.NominalEfficiencyPct,
		SizeM2:                      req.SizeM2,
		Manufacturer:                req.Manufacturer,
		ManufacturingFootprintKgCO2: req.ManufacturingFootprintKgCO2,
		LifetimeYears:               req.LifetimeYears,
		CarbonReductionFactor:       req.CarbonReductionFactor,
		Owner:                       req.Owner,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"panelId":  req.PanelID,
		"issuance": issuance.StringFixed(4),
	})
}

type createTransactionRequest struct {
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Amount    string `json:"amount"`
	PanelID   string `json:"panelId,omitempty"`
	Signature string `json:"signature"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, core.ErrInvalidTransaction)
		return
	}
	txid, err := s.ledger.SubmitTransaction(req.Sender, req.Receiver, amount, req.PanelID, req.Signature)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"txid": txid})
}

type executeContractRequest struct {
	Args []any `json:"args"`
}

func (s *Server) handleExecuteContract(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req executeContractRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, err)
			return
		}
	}
	result, err := s.contracts.Invoke(name, req.Args)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}
