// Package junction solves for the pressure at a bifurcation.
//
// A junction joins three vessels: an upstream vessel with a known inlet
// pressure, and two children (the continuing downstream vessel and the new
// branch) with known outlet pressures. Every vessel has a fixed length and
// flow, so Poiseuille's law ties each radius to the junction pressure Pj:
//
//	r_a⁴   = K·L_a·Q_a / (P_a − Pj)
//	r_b⁴   = K·L_b·Q_b / (Pj − P_b)
//	r_new⁴ = K·L_new·Q_new / (Pj − P_new)
//
// [Solver.Solve] finds the Pj at which Murray's law r_a^y = r_b^y + r_new^y
// holds. The residual is strictly increasing on the open interval between the
// highest child outlet and the upstream inlet and spans −∞ to +∞ there, so the
// root is unique whenever that interval is non-empty. [Brent] does the search.
package junction
