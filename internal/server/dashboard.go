package server

import "net/http"

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>MintPanel</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  :root {
    --bg: #0c0a09; --surface: #1c1917; --surface-hover: #292524;
    --border: rgba(249,115,22,0.12); --border-strong: rgba(249,115,22,0.25);
    --text: #fafaf9; --text-dim: #a8a29e; --text-muted: #57534e;
    --orange: #f97316; --orange-light: #fb923c; --orange-glow: rgba(249,115,22,0.08);
    --orange-dim: rgba(249,115,22,0.15); --orange-dimmer: rgba(249,115,22,0.06);
    --green: #22c55e; --red: #ef4444;
  }
  body {
    font-family: -apple-system, 'SF Pro Display', 'Segoe UI', system-ui, sans-serif;
    background: var(--bg); color: var(--text);
    min-height: 100vh; padding: 40px 24px;
  }
  .container { max-width: 880px; margin: 0 auto; }

  /* Header */
  .header {
    display: flex; align-items: center; gap: 16px;
    margin-bottom: 40px; padding-bottom: 24px;
    border-bottom: 1px solid var(--border);
  }
  .header-icon {
    width: 48px; height: 48px; border-radius: 14px;
    box-shadow: 0 0 24px rgba(249,115,22,0.3), 0 0 48px rgba(249,115,22,0.1);
    object-fit: cover;
  }
  .header-text h1 {
    font-size: 26px; font-weight: 800; letter-spacing: -0.5px;
    background: linear-gradient(135deg, var(--orange-light) 0%, var(--orange) 100%);
    -webkit-background-clip: text; -webkit-text-fill-color: transparent;
  }
  .header-text .subtitle {
    font-size: 12px; color: var(--text-muted); margin-top: 2px;
    font-family: 'SF Mono', 'Menlo', monospace; letter-spacing: 0.5px;
  }
  .header .spacer { flex: 1; }
  .header-badge {
    font-size: 11px; font-weight: 600; color: var(--orange);
    background: var(--orange-dim); padding: 4px 12px;
    border-radius: 20px; border: 1px solid var(--border);
    font-family: 'SF Mono', 'Menlo', monospace;
  }
  .status-pill {
    display: flex; align-items: center; gap: 8px;
    font-size: 12px; font-weight: 600; color: var(--green);
    background: rgba(34,197,94,0.08); padding: 6px 14px;
    border-radius: 20px; border: 1px solid rgba(34,197,94,0.15);
  }
  .status-pill.offline { color: var(--red); background: rgba(239,68,68,0.08); border-color: rgba(239,68,68,0.15); }
  .status-pill .dot {
    width: 8px; height: 8px; border-radius: 50%;
    background: currentColor; position: relative;
  }
  .status-pill .dot::before {
    content: ''; position: absolute; inset: -3px;
    border-radius: 50%; background: currentColor; opacity: 0.3;
    animation: ping 1.5s cubic-bezier(0,0,0.2,1) infinite;
  }
  @keyframes ping { 75%, 100% { transform: scale(2.5); opacity: 0; } }

  /* Stats Grid */
  .stats-grid {
    display: grid; grid-template-columns: repeat(3, 1fr);
    gap: 16px; margin-bottom: 16px;
  }
  .stat-card {
    background: var(--surface); border: 1px solid var(--border);
    border-radius: 20px; padding: 24px;
    transition: border-color 0.2s, background 0.2s;
  }
  .stat-card:hover {
    border-color: var(--border-strong); background: var(--surface-hover);
  }
  .stat-card.highlight {
    background: linear-gradient(135deg, var(--orange-dimmer) 0%, var(--surface) 100%);
    border-color: var(--border-strong);
  }
  .stat-card.full { grid-column: 1 / -1; }
  .stat-label {
    font-size: 11px; font-weight: 600; letter-spacing: 1.5px; text-transform: uppercase;
    color: var(--text-muted); margin-bottom: 12px;
  }
  .stat-value {
    font-size: 32px; font-weight: 800; color: var(--text);
    font-variant-numeric: tabular-nums; letter-spacing: -1px;
    line-height: 1;
  }
  .stat-value.orange { color: var(--orange); }
  .stat-value.small { font-size: 18px; letter-spacing: 0; }
  .stat-sub {
    font-size: 12px; color: var(--text-dim); margin-top: 6px;
    font-family: 'SF Mono', 'Menlo', monospace;
  }

  /* Wallet Card */
  .wallet-card {
    background: var(--surface); border: 1px solid var(--border);
    border-radius: 20px; padding: 24px; margin-bottom: 16px;
  }
  .wallet-label { font-size: 11px; font-weight: 600; letter-spacing: 1.5px; color: var(--text-muted); margin-bottom: 12px; }
  .wallet-addr {
    font-size: 15px; font-weight: 600; color: var(--orange);
    font-family: 'SF Mono', 'Menlo', monospace;
    word-break: break-all; cursor: pointer;
    padding: 12px 16px; background: var(--orange-dimmer);
    border: 1px solid var(--border); border-radius: 12px;
    transition: all 0.2s; display: block;
  }
  .wallet-addr:hover { background: var(--orange-dim); border-color: var(--border-strong); }
  .wallet-sub {
    font-size: 11px; color: var(--text-muted); margin-top: 8px;
    font-family: 'SF Mono', 'Menlo', monospace;
  }

  /* Peers Card */
  .peers-card {
    background: var(--surface); border: 1px solid var(--border);
    border-radius: 20px; padding: 24px; margin-bottom: 16px;
  }
  .peers-label { font-size: 11px; font-weight: 600; letter-spacing: 1.5px; color: var(--text-muted); margin-bottom: 16px; }
  .peers-table { width: 100%; border-collapse: collapse; }
  .peers-table th {
    font-size: 10px; font-weight: 600; letter-spacing: 1.5px; text-transform: uppercase;
    color: var(--text-muted); text-align: left; padding: 10px 0;
    border-bottom: 1px solid var(--border);
  }
  .peers-table td {
    font-size: 13px; color: var(--text-dim); padding: 12px 0;
    border-bottom: 1px solid var(--border);
    font-family: 'SF Mono', 'Menlo', monospace;
  }
  .peers-table tr:last-child td { border-bottom: none; }
  .peers-table td:first-child { color: var(--text); font-weight: 500; }
  .peers-table .badge {
    display: inline-block; font-size: 10px; font-weight: 600; padding: 3px 10px;
    border-radius: 20px; background: var(--orange-dim); color: var(--orange);
    letter-spacing: 0.5px;
  }

  /* Toast */
  .copy-toast {
    position: fixed; bottom: 32px; left: 50%; transform: translateX(-50%);
    background: linear-gradient(135deg, var(--orange) 0%, #ea580c 100%);
    color: #000; padding: 10px 24px;
    border-radius: 14px; font-size: 13px; font-weight: 700;
    box-shadow: 0 8px 32px rgba(249,115,22,0.4);
    opacity: 0; transition: opacity 0.3s; pointer-events: none;
  }
  .copy-toast.show { opacity: 1; }

  /* Footer */
  .footer {
    text-align: center; margin-top: 40px; padding-top: 24px;
    border-top: 1px solid var(--border);
    font-size: 12px; color: var(--text-muted);
  }
  .footer a {
    color: var(--orange); text-decoration: none;
    font-weight: 600; transition: opacity 0.2s;
  }
  .footer a:hover { opacity: 0.7; }
  .footer .sep { margin: 0 8px; color: var(--border-strong); }

  .cta {
    display: inline-block; border: none; cursor: pointer;
    font-size: 15px; font-weight: 700; padding: 14px 32px; border-radius: 14px;
    background: linear-gradient(135deg, var(--orange-light) 0%, var(--orange) 100%);
    color: #000; transition: opacity 0.2s;
  }
  .cta:hover { opacity: 0.85; }
  .cta.secondary { background: var(--surface); color: var(--orange); border: 1px solid var(--border-strong); }
  .cta[hidden] { display: none; }
  .actions { display: flex; gap: 12px; flex-wrap: wrap; margin-bottom: 16px; }
  .loading { display: none; align-items: center; gap: 10px; color: var(--text-dim); font-size: 13px; margin-bottom: 16px; }
  .loading.show { display: flex; }
  .spinner {
    width: 18px; height: 18px; border-radius: 50%;
    border: 2px solid var(--orange-dim); border-top-color: var(--orange);
    animation: spin 0.8s linear infinite;
  }
  @keyframes spin { to { transform: rotate(360deg); } }
  .alert {
    background: rgba(239,68,68,0.08); border: 1px solid rgba(239,68,68,0.2);
    color: var(--red); border-radius: 14px; padding: 12px 16px;
    font-size: 13px; margin-bottom: 16px; display: flex; gap: 12px; align-items: center;
  }
  .alert button { margin-left: auto; background: none; border: none; color: var(--red); cursor: pointer; font-weight: 700; }
  .error-line { font-size: 12px; color: var(--red); margin-top: 6px; font-family: 'SF Mono', 'Menlo', monospace; }

  /* Responsive */
  @media (max-width: 640px) {
    .stats-grid { grid-template-columns: 1fr 1fr; }
    body { padding: 24px 16px; }
    .stat-value { font-size: 26px; }
    .header-text h1 { font-size: 22px; }
  }
  @media (max-width: 400px) {
    .stats-grid { grid-template-columns: 1fr; }
  }
</style>
</head>
<body>
<div class="container">

  <div class="header">
    <div class="header-text">
      <h1 id="title">My NFT Collection</h1>
      <div class="subtitle" id="subText"></div>
    </div>
    <div class="spacer"></div>
    <span class="header-badge" id="chain">--</span>
    <div class="status-pill offline" id="statusPill">
      <span class="dot"></span>
      <span id="statusText">Not connected</span>
    </div>
  </div>

  <div id="alerts"></div>

  <div class="actions">
    <button class="cta" id="connectBtn" onclick="connectWallet()">Connect to Wallet</button>
    <button class="cta" id="mintBtn" onclick="mint()" hidden>Mint NFT</button>
    <a id="openseaLink" href="#"><button class="cta secondary">View Collection on OpenSea</button></a>
  </div>

  <div class="loading" id="loading"><span class="spinner"></span>Mining...please wait.</div>

  <div class="stats-grid">
    <div class="stat-card highlight">
      <div class="stat-label">Minted</div>
      <div class="stat-value orange" id="mintCount">--</div>
      <div class="stat-sub" id="mintTotal"></div>
    </div>
    <div class="stat-card">
      <div class="stat-label">Phase</div>
      <div class="stat-value small" id="phase">--</div>
    </div>
    <div class="stat-card">
      <div class="stat-label">Uptime</div>
      <div class="stat-value small" id="uptime">--</div>
    </div>
  </div>

  <div class="wallet-card">
    <div class="wallet-label">Account</div>
    <div class="wallet-addr" id="walletAddr" title="Click to copy" onclick="copyAddr()">--</div>
    <div class="wallet-sub" id="lastTx"></div>
    <div class="error-line" id="lastError"></div>
  </div>

  <div class="peers-card">
    <div class="peers-label">Recent Mints</div>
    <table class="peers-table">
      <thead><tr><th>Token</th><th>From</th><th>Block</th><th>Tx</th></tr></thead>
      <tbody id="eventsBody">
        <tr><td colspan="4" style="color: var(--text-muted); font-size: 12px;">Loading...</td></tr>
      </tbody>
    </table>
  </div>

  <div class="footer">
    <a id="twitterLink" href="#" target="_blank" rel="noreferrer">--</a>
  </div>

</div>

<div class="copy-toast" id="toast"></div>

<script>
const $ = id => document.getElementById(id);

function formatUptime(ms) {
  const s = Math.floor(ms / 1000);
  const d = Math.floor(s / 86400);
  const h = Math.floor((s % 86400) / 3600);
  const m = Math.floor((s % 3600) / 60);
  const sec = s % 60;
  if (d > 0) return d + 'd ' + h + 'h ' + m + 'm';
  if (h > 0) return h + 'h ' + m + 'm';
  if (m > 0) return m + 'm ' + sec + 's';
  return sec + 's';
}

function esc(s) {
  return String(s == null ? '' : s).replace(/[&<>"']/g, c => '&#' + c.charCodeAt(0) + ';');
}

let account = '';

function copyAddr() {
  if (!account) return;
  navigator.clipboard.writeText(account);
}

async function fetchJSON(url, opts) {
  try {
    const res = await fetch(url, opts);
    const body = await res.json();
    if (!res.ok) return { error: body.error || res.status };
    return body;
  } catch { return null; }
}

// Writes must be JSON so cross-origin pages cannot send them without a preflight.
function post(url) {
  return fetchJSON(url, { method: 'POST', headers: { 'Content-Type': 'application/json' } });
}

let actionError = '';

function reportAction(res, what) {
  if (!res) actionError = what + ' failed: daemon unreachable';
  else if (res.error) actionError = what + ' failed: ' + res.error;
  else actionError = '';
  if (actionError) console.log(actionError);
}

async function connectWallet() {
  reportAction(await post('/api/connect'), 'Connect');
  poll();
}

async function mint() {
  reportAction(await post('/api/mint'), 'Mint');
  poll();
}

async function ackAlerts() {
  await post('/api/alerts/ack');
  poll();
}

function renderPanel(v) {
  $('title').textContent = v.title;
  $('subText').textContent = v.sub_text;
  account = v.account || '';
  $('walletAddr').textContent = account || '--';
  $('connectBtn').hidden = !v.show_connect;
  $('mintBtn').hidden = !v.show_mint;
  $('loading').className = v.show_loading ? 'loading show' : 'loading';
  $('mintCount').textContent = v.mint_count;
  $('mintTotal').textContent = 'of ' + v.total_mint_count;
  $('phase').textContent = v.phase;
  $('chain').textContent = v.chain_id || '--';

  const toast = $('toast');
  toast.textContent = v.counter;
  toast.className = v.toast === 'show' ? 'copy-toast show' : 'copy-toast';

  const pill = $('statusPill');
  if (!account) {
    pill.className = 'status-pill offline';
    $('statusText').textContent = 'Not connected';
  } else if (v.wrong_network) {
    pill.className = 'status-pill offline';
    $('statusText').textContent = 'Wrong network';
  } else {
    pill.className = 'status-pill';
    $('statusText').textContent = 'Connected';
  }

  $('lastTx').innerHTML = v.tx_url
    ? 'Mined, see transaction: <a href="' + esc(v.tx_url) + '" target="_blank" rel="noreferrer">' + esc(v.last_tx.substring(0, 18)) + '...</a>'
    : '';
  $('lastError').textContent = actionError || v.last_error || '';

  $('alerts').innerHTML = (v.alerts || []).map(a =>
    '<div class="alert">' + esc(a) + '<button onclick="ackAlerts()">OK</button></div>'
  ).join('');

  $('openseaLink').href = v.links.opensea_url;
  $('twitterLink').href = v.links.twitter_url;
  $('twitterLink').textContent = '@' + v.links.twitter_handle;
}

async function poll() {
  const v = await fetchJSON('/api/panel');
  if (v && !v.error) renderPanel(v);

  const health = await fetchJSON('/health');
  if (health && !health.error) $('uptime').textContent = formatUptime(health.uptime_ms || 0);

  const events = await fetchJSON('/api/events?limit=5');
  const tbody = $('eventsBody');
  if (Array.isArray(events) && events.length > 0) {
    tbody.innerHTML = events.map(e =>
      '<tr>' +
        '<td>#' + esc(e.token_id) + '</td>' +
        '<td>' + esc((e.from_address || '').substring(0, 12)) + '...</td>' +
        '<td>' + esc(e.block_number) + '</td>' +
        '<td>' + esc((e.tx_hash || '').substring(0, 12)) + '...</td>' +
      '</tr>'
    ).join('');
  } else if (Array.isArray(events)) {
    tbody.innerHTML = '<tr><td colspan="4" style="color: var(--text-muted); font-size: 12px;">No mints observed yet</td></tr>';
  }

  if (!v) {
    $('statusPill').className = 'status-pill offline';
    $('statusText').textContent = 'Offline';
  }
}

poll();
setInterval(poll, 1000);
</script>
</body>
</html>`

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}
